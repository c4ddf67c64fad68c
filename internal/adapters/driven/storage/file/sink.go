package file

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure ResultSink implements the interface.
var _ driven.ResultSink = (*ResultSink)(nil)

// ResultSink appends lines to files. Each Append opens the file in append
// mode, so earlier content is never rewritten and a crashed run keeps what
// was written. A mutex keeps concurrent appends from interleaving.
type ResultSink struct {
	mu sync.Mutex
}

// NewResultSink creates a result sink.
func NewResultSink() *ResultSink {
	return &ResultSink{}
}

// Append writes each line followed by a newline, creating the parent
// directory and the file as needed.
func (s *ResultSink) Append(path string, lines ...string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Flush()
}

// Truncate empties path if it exists so a new run starts a fresh file.
// A missing file is not an error.
func Truncate(path string) error {
	err := os.Truncate(path, 0)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("truncate %s: %w", path, err)
}
