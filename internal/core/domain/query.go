package domain

import (
	"fmt"
	"strings"
	"time"
)

// SitesQueryText matches site collections and sub-webs.
const SitesQueryText = "contentclass:STS_Site OR contentclass:STS_Web"

// ThisYear is the default last-modified window.
const ThisYear = "this year"

// DefaultExtensions is the extension allow-list used by keyword scans.
var DefaultExtensions = []string{"txt", "doc", "docx", "xls", "xlsx", "json"}

// Query is a search expression plus optional filter clauses.
// It is built once per search and never mutated while paginating.
type Query struct {
	// Text is the base keyword query.
	Text string

	// Extensions restricts results to these file extensions (disjunction).
	Extensions []string

	// LastModified is a KQL predicate on LastModifiedTime (conjunction).
	LastModified string
}

// NewQuery creates a query with copies of the filter slices.
func NewQuery(text string, extensions []string, lastModified string) Query {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return Query{
		Text:         text,
		Extensions:   exts,
		LastModified: strings.TrimSpace(lastModified),
	}
}

// String renders the query as KQL.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Text)
	if len(q.Extensions) > 0 {
		clauses := make([]string, len(q.Extensions))
		for i, ext := range q.Extensions {
			clauses[i] = "FileExtension:" + ext
		}
		b.WriteString(" AND (")
		b.WriteString(strings.Join(clauses, " OR "))
		b.WriteString(")")
	}
	if q.LastModified != "" {
		b.WriteString(" AND ")
		b.WriteString(q.LastModified)
	}
	return b.String()
}

// IsEmpty returns true if the query has no text.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// NamedQuery is a catalog entry.
type NamedQuery struct {
	Title string
	Query Query
}

// KeywordOperator joins keywords in a custom query.
type KeywordOperator string

// Supported keyword operators.
const (
	OperatorOr  KeywordOperator = "OR"
	OperatorAnd KeywordOperator = "AND"
)

// ParseKeywordOperator parses AND/OR case-insensitively.
func ParseKeywordOperator(s string) (KeywordOperator, error) {
	switch KeywordOperator(strings.ToUpper(strings.TrimSpace(s))) {
	case OperatorOr, "":
		return OperatorOr, nil
	case OperatorAnd:
		return OperatorAnd, nil
	default:
		return "", fmt.Errorf("%w: operator %q, want AND or OR", ErrInvalidInput, s)
	}
}

// KeywordQuery quotes each keyword and joins them with op.
// Empty keywords are dropped. The result is parenthesised when more than
// one keyword remains.
func KeywordQuery(keywords []string, op KeywordOperator) string {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, `"`+k+`"`)
	}
	if len(quoted) == 0 {
		return ""
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "(" + strings.Join(quoted, " "+string(op)+" ") + ")"
}

const dateLayout = "2006-01-02"

// ParseModifiedFilter turns an operator expression into a LastModifiedTime predicate.
//
//	""              -> no predicate
//	"this year"     -> LastModifiedTime="this year"
//	"a,b" (dates)   -> LastModifiedTime>=a AND LastModifiedTime<=b
//	"LastModified…" -> passed through as raw KQL
func ParseModifiedFilter(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return "", nil
	case strings.EqualFold(expr, ThisYear):
		return `LastModifiedTime="this year"`, nil
	case strings.HasPrefix(expr, "LastModifiedTime"):
		return expr, nil
	}

	start, end, ok := strings.Cut(expr, ",")
	if !ok {
		return "", fmt.Errorf("%w: modified filter %q, want %q or YYYY-MM-DD,YYYY-MM-DD", ErrInvalidInput, expr, ThisYear)
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return "", fmt.Errorf("%w: start date %q", ErrInvalidInput, start)
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return "", fmt.Errorf("%w: end date %q", ErrInvalidInput, end)
	}
	if to.Before(from) {
		return "", fmt.Errorf("%w: end date %s before start date %s", ErrInvalidInput, end, start)
	}
	return fmt.Sprintf("LastModifiedTime>=%s AND LastModifiedTime<=%s", start, end), nil
}
