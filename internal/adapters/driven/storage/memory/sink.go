package memory

import (
	"sync"

	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure ResultSink implements the interface.
var _ driven.ResultSink = (*ResultSink)(nil)

// ResultSink keeps appended lines per path in memory.
type ResultSink struct {
	mu    sync.Mutex
	files map[string][]string
	err   error
}

// NewResultSink creates an empty sink.
func NewResultSink() *ResultSink {
	return &ResultSink{files: make(map[string][]string)}
}

// FailWith makes every following Append return err. Nil restores normal behaviour.
func (s *ResultSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Append records lines under path in call order.
func (s *ResultSink) Append(path string, lines ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.files[path] = append(s.files[path], lines...)
	return nil
}

// Lines returns a copy of everything appended to path.
func (s *ResultSink) Lines(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files[path]...)
}

// Paths returns the number of distinct paths written.
func (s *ResultSink) Paths() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
