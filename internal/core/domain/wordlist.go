package domain

import (
	"sort"
	"strings"
)

// TemplatePrefix marks decoy template files in the template directory.
const TemplatePrefix = "template"

// WordlistCategory holds the filename material for one kind of decoy.
type WordlistCategory struct {
	// Name is the canonical category, e.g. "vault".
	Name string

	// Suffixes are the template file suffixes that classify into this category,
	// including the leading dot, e.g. ".zip", ".7z".
	Suffixes []string

	// Extensions are the plausible extension variants for generated names.
	Extensions []string

	// BaseNames are the plausible base-name candidates.
	BaseNames []string

	// Wordlist is the file the base names were read from.
	Wordlist string
}

// WordlistIndex maps canonical categories to filename material.
// It is loaded once per deployment run and read-only afterwards.
type WordlistIndex struct {
	categories map[string]WordlistCategory
}

// NewWordlistIndex builds an index from categories. Later duplicates win.
func NewWordlistIndex(categories ...WordlistCategory) *WordlistIndex {
	idx := &WordlistIndex{categories: make(map[string]WordlistCategory, len(categories))}
	for _, c := range categories {
		idx.categories[c.Name] = c
	}
	return idx
}

// Category returns the named category.
func (w *WordlistIndex) Category(name string) (WordlistCategory, bool) {
	c, ok := w.categories[name]
	return c, ok
}

// Names returns the category names in sorted order.
func (w *WordlistIndex) Names() []string {
	names := make([]string, 0, len(w.categories))
	for name := range w.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classify maps a template file name to a category by its suffix.
// The longest matching suffix wins so ".tar.gz" beats ".gz".
func (w *WordlistIndex) Classify(templateName string) (WordlistCategory, bool) {
	lower := strings.ToLower(templateName)
	var (
		best    WordlistCategory
		bestLen int
	)
	for _, name := range w.Names() {
		c := w.categories[name]
		for _, suffix := range c.Suffixes {
			s := strings.ToLower(suffix)
			if strings.HasSuffix(lower, s) && len(s) > bestLen {
				best, bestLen = c, len(s)
			}
		}
	}
	return best, bestLen > 0
}

// DefaultWordlistCategories is the built-in category table. BaseNames are
// empty; they are filled from the wordlist files at load time.
func DefaultWordlistCategories() []WordlistCategory {
	return []WordlistCategory{
		{
			Name:       "vault",
			Suffixes:   []string{".vault"},
			Extensions: []string{"vault", "kdbx", "kdb", "kpdx", "mscx", "msim", "dash", "1PUX"},
			Wordlist:   "passwdvault_filenames.txt",
		},
		{
			Name:       "database",
			Suffixes:   []string{".db"},
			Extensions: []string{"sql", "db", "sqlite", "sqlite3", "odb", "OQY"},
			Wordlist:   "sql_filenames.txt",
		},
		{
			Name:       "config",
			Suffixes:   []string{".conf"},
			Extensions: []string{"cnf", "conf", "cfg", "config"},
			Wordlist:   "config_filenames.txt",
		},
		{
			Name:       "outlook",
			Suffixes:   []string{".pst"},
			Extensions: []string{"pst", "ost", "msg"},
			Wordlist:   "outlook_filenames.txt",
		},
		{
			Name:     "backup",
			Suffixes: []string{".bak"},
			Extensions: []string{
				"bak", "sql", "bak2", "backup", "iso", "old", "bckp",
				"vbox-prev", "img", "dmg", "dd", "vhd", "edb", "dat",
			},
			Wordlist: "backup_filenames.txt",
		},
		{
			Name:       "keys",
			Suffixes:   []string{".key"},
			Extensions: []string{"key", "pem", "pfx", "ppk"},
			Wordlist:   "keys_filenames.txt",
		},
		{
			Name:       "archive",
			Suffixes:   []string{".zip", ".7z"},
			Extensions: []string{"zip", "7z", "gzip", "tar", "tar.gz"},
			Wordlist:   "archive_filenames.txt",
		},
		{
			Name:       "document",
			Suffixes:   []string{".doc", ".docx"},
			Extensions: []string{"doc", "docx"},
			Wordlist:   "document_filenames.txt",
		},
		{
			Name:       "csv",
			Suffixes:   []string{".csv"},
			Extensions: []string{"csv"},
			Wordlist:   "csv_filenames.txt",
		},
	}
}

// IsTemplate reports whether a file name carries the template marker prefix.
func IsTemplate(name string) bool {
	return strings.HasPrefix(name, TemplatePrefix)
}
