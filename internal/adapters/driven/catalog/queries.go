package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// yamlQuery is one entry of a YAML query catalog.
type yamlQuery struct {
	Title      string   `yaml:"title"`
	Query      string   `yaml:"query"`
	Extensions []string `yaml:"extensions,omitempty"`
	Modified   string   `yaml:"modified,omitempty"`
}

// LoadQueries reads a query catalog. Files ending in .yaml or .yml are parsed
// as YAML; anything else as markdown.
func LoadQueries(path string) ([]domain.NamedQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read query catalog: %w", domain.ErrConfiguration, err)
	}

	var queries []domain.NamedQuery
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		queries, err = ParseYAMLQueries(data)
	default:
		queries = ParseMarkdownQueries(data)
	}
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries in %s", domain.ErrConfiguration, path)
	}
	return queries, nil
}

// ParseMarkdownQueries parses "## Title" headings each followed by query
// lines. Query lines are joined with a space. Other lines starting with "#"
// are comments. Titles without a query are dropped; a repeated title
// replaces the earlier query in place.
func ParseMarkdownQueries(data []byte) []domain.NamedQuery {
	var (
		queries []domain.NamedQuery
		index   = make(map[string]int)
		title   string
		body    []string
	)
	flush := func() {
		if title == "" || len(body) == 0 {
			return
		}
		nq := domain.NamedQuery{Title: title, Query: domain.NewQuery(strings.Join(body, " "), nil, "")}
		if i, ok := index[title]; ok {
			queries[i] = nq
			return
		}
		index[title] = len(queries)
		queries = append(queries, nq)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "##"):
			flush()
			title = strings.TrimSpace(strings.TrimLeft(line, "#"))
			body = nil
		case line == "" || strings.HasPrefix(line, "#"):
		default:
			body = append(body, line)
		}
	}
	flush()
	return queries
}

// ParseYAMLQueries parses a list of {title, query, extensions, modified}.
func ParseYAMLQueries(data []byte) ([]domain.NamedQuery, error) {
	var entries []yamlQuery
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse query catalog: %w", domain.ErrConfiguration, err)
	}

	queries := make([]domain.NamedQuery, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Query) == "" {
			return nil, fmt.Errorf("%w: query catalog entry %d needs a title and a query", domain.ErrConfiguration, i+1)
		}
		modified, err := domain.ParseModifiedFilter(e.Modified)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", e.Title, err)
		}
		queries = append(queries, domain.NamedQuery{
			Title: strings.TrimSpace(e.Title),
			Query: domain.NewQuery(strings.TrimSpace(e.Query), e.Extensions, modified),
		})
	}
	return queries, nil
}
