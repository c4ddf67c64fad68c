package domain

// SearchPage is one batch of rows returned by the platform search.
type SearchPage struct {
	// Paths holds the non-empty Path cell of every returned row, duplicates included.
	Paths []string

	// Rows is the number of rows the platform returned, with or without a path.
	Rows int

	// TotalRows is the platform's estimate of total matches, informational only.
	TotalRows int
}

// RowCount returns the number of rows in the page. Rows without a path
// still count, so only a truly empty page ends pagination.
func (p SearchPage) RowCount() int {
	if p.Rows > len(p.Paths) {
		return p.Rows
	}
	return len(p.Paths)
}

// SearchResult is the set of unique content paths produced by one logical search.
// Paths keeps first-seen order so output files are stable across runs.
type SearchResult struct {
	seen  map[string]struct{}
	paths []string
}

// NewSearchResult creates an empty result set.
func NewSearchResult() SearchResult {
	return SearchResult{seen: make(map[string]struct{})}
}

// Add inserts a path and reports whether it was new.
func (r *SearchResult) Add(path string) bool {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, ok := r.seen[path]; ok {
		return false
	}
	r.seen[path] = struct{}{}
	r.paths = append(r.paths, path)
	return true
}

// Contains reports whether the path is in the set.
func (r SearchResult) Contains(path string) bool {
	_, ok := r.seen[path]
	return ok
}

// Len returns the number of unique paths.
func (r SearchResult) Len() int {
	return len(r.paths)
}

// Paths returns a copy of the unique paths.
func (r SearchResult) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}
