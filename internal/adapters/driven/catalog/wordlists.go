package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// IndexFile overrides the built-in category table when present in the
// wordlist directory.
const IndexFile = "index.toml"

type indexFile struct {
	Categories []indexCategory `toml:"category"`
}

type indexCategory struct {
	Name       string   `toml:"name"`
	Suffixes   []string `toml:"suffixes"`
	Extensions []string `toml:"extensions"`
	Wordlist   string   `toml:"wordlist"`
}

// LoadWordlistIndex builds the wordlist index for dir. Base names are read
// from each category's wordlist file. A missing wordlist leaves the category
// without base names; synthesis for it then fails with ErrConfiguration.
func LoadWordlistIndex(dir string) (*domain.WordlistIndex, error) {
	categories, err := loadCategories(dir)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		c := &categories[i]
		if c.Wordlist == "" {
			continue
		}
		names, err := readWords(filepath.Join(dir, c.Wordlist))
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("wordlist %s for category %s not found", c.Wordlist, c.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: wordlist %s: %w", domain.ErrConfiguration, c.Wordlist, err)
		}
		c.BaseNames = names
		logger.Debug("category %s: %d base names", c.Name, len(names))
	}
	return domain.NewWordlistIndex(categories...), nil
}

func loadCategories(dir string) ([]domain.WordlistCategory, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.DefaultWordlistCategories(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, IndexFile, err)
	}

	var idx indexFile
	if err := toml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, IndexFile, err)
	}
	if len(idx.Categories) == 0 {
		return nil, fmt.Errorf("%w: %s defines no categories", domain.ErrConfiguration, IndexFile)
	}

	categories := make([]domain.WordlistCategory, 0, len(idx.Categories))
	for _, c := range idx.Categories {
		if c.Name == "" || len(c.Suffixes) == 0 {
			return nil, fmt.Errorf("%w: %s category needs a name and suffixes", domain.ErrConfiguration, IndexFile)
		}
		categories = append(categories, domain.WordlistCategory{
			Name:       c.Name,
			Suffixes:   c.Suffixes,
			Extensions: c.Extensions,
			Wordlist:   c.Wordlist,
		})
	}
	return categories, nil
}

func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	return words, scanner.Err()
}
