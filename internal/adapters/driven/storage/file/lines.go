package file

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// ReadLines returns the trimmed, non-blank lines of a UTF-8 text file.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrConfiguration, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, path, err)
	}
	return lines, nil
}

// ReadTargets reads a target list file.
func ReadTargets(path string) ([]domain.Target, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return domain.ParseTargets(lines), nil
}
