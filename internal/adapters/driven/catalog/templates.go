package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure TemplateStore implements the interface.
var _ driven.TemplateStore = (*TemplateStore)(nil)

// TemplateStore serves decoy templates from a directory.
type TemplateStore struct {
	dir string
}

// NewTemplateStore creates a store over dir.
func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

// List returns the sorted names of regular files starting with the template prefix.
func (s *TemplateStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: template directory: %w", domain.ErrConfiguration, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && domain.IsTemplate(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the raw bytes of a template. Only the base name is used.
func (s *TemplateStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	return data, nil
}
