package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

func TestSearcher_DeduplicatesAcrossPages(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{
		{"https://root/a", "https://root/b"},
		{"https://root/b", "https://root/c"},
		{"https://root/a", "https://root/a"},
	}
	searcher := NewSearcher(nil, 2, nil)

	result, err := searcher.Search(context.Background(), session, domain.NewQuery("secret", nil, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://root/a", "https://root/b", "https://root/c"}, result.Paths())
	assert.Equal(t, []int{0, 2, 4, 6}, session.startRows)
}

func TestSearcher_StopsAtFirstEmptyPage(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"x"}, {}, {"never"}}
	metrics := newCountingMetrics()
	searcher := NewSearcher(nil, 1, metrics)

	result, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, result.Paths())
	assert.Equal(t, []int{0, 1}, session.startRows)
	assert.Equal(t, []int{1, 0}, metrics.pages)
}

func TestSearcher_PageWithoutPathsDoesNotStop(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{""}, {"https://root/b"}, {}}
	searcher := NewSearcher(nil, 1, nil)

	result, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://root/b"}, result.Paths())
	assert.Equal(t, []int{0, 1, 2}, session.startRows)
}

func TestSearcher_EmptyFirstPage(t *testing.T) {
	session := newMockSession("https://root")
	searcher := NewSearcher(nil, 10, nil)

	result, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	require.NoError(t, err)
	assert.Zero(t, result.Len())
	assert.Equal(t, []int{0}, session.startRows)
}

func TestSearcher_TransportFailureKeepsPartialResult(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	session.searchErrAt = 4
	session.searchErr = fmt.Errorf("%w: connection reset", domain.ErrTransport)
	searcher := NewSearcher(nil, 2, nil)

	result, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "row 4")
	assert.Equal(t, []string{"a", "b", "c", "d"}, result.Paths())
}

func TestSearcher_UnclassifiedFailureBecomesTransport(t *testing.T) {
	session := newMockSession("https://root")
	session.searchErrAt = 0
	session.searchErr = errors.New("unexpected EOF")
	searcher := NewSearcher(nil, 2, nil)

	_, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestSearcher_FreshCallRestartsAtRowZero(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"a"}}
	searcher := NewSearcher(nil, 5, nil)

	_, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))
	require.NoError(t, err)
	_, err = searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 5, 0, 5}, session.startRows)
}

func TestSearcher_ThrottlesEveryPage(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"a"}, {"b"}}
	clock := newMockClock()
	searcher := NewSearcher(NewThrottle(100*time.Millisecond, clock), 1, nil)

	_, err := searcher.Search(context.Background(), session, domain.NewQuery("q", nil, ""))

	require.NoError(t, err)
	// three calls: the first is free, the next two wait a full interval
	assert.Len(t, clock.Sleeps(), 2)
}

func TestSearcher_EnumerateYieldsUniquePaths(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"a", "a", "b"}}
	searcher := NewSearcher(nil, 3, nil)

	paths, errs := searcher.Enumerate(context.Background(), session, domain.NewQuery("q", nil, ""))

	var got []string
	for p := range paths {
		got = append(got, p)
	}
	assert.NoError(t, <-errs)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSearcher_EnumerateCancelled(t *testing.T) {
	session := newMockSession("https://root")
	session.pages = [][]string{{"a", "b"}}
	searcher := NewSearcher(nil, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := searcher.Search(ctx, session, domain.NewQuery("q", nil, ""))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Len())
	assert.Empty(t, session.startRows)
}

func TestNewSearcher_PageSizeBounds(t *testing.T) {
	assert.Equal(t, domain.DefaultPageSize, NewSearcher(nil, 0, nil).PageSize())
	assert.Equal(t, domain.DefaultPageSize, NewSearcher(nil, -3, nil).PageSize())
	assert.Equal(t, domain.MaxPageSize, NewSearcher(nil, 5000, nil).PageSize())
	assert.Equal(t, 50, NewSearcher(nil, 50, nil).PageSize())
}
