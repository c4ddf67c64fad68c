package services

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

const (
	// decoyMaxAge is how far back a forged creation time may reach.
	decoyMaxAge = 3 * 365 * 24 * time.Hour

	// decoyMinAge keeps forged creation times out of the last month.
	decoyMinAge = 30 * 24 * time.Hour
)

// Decoy is a synthesized decoy name with its forged timestamps.
type Decoy struct {
	Category   string
	Filename   string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Synthesizer derives decoy filenames and forged timestamps.
// It is safe for concurrent use.
type Synthesizer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock Clock
}

// NewSynthesizer creates a synthesizer. A nil rng is seeded randomly and a
// nil clock uses the wall clock.
func NewSynthesizer(rng *rand.Rand, clock Clock) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Synthesizer{rng: rng, clock: clock}
}

// Synthesize classifies templateName and derives a decoy for it.
//
// The filename is "<base>.<extension>" with both parts drawn uniformly from
// the matching category. CreatedAt is drawn from [now-3y, now-30d) and
// ModifiedAt from [CreatedAt, now), so CreatedAt <= ModifiedAt <= now.
func (s *Synthesizer) Synthesize(templateName string, index *domain.WordlistIndex) (Decoy, error) {
	category, ok := index.Classify(templateName)
	if !ok {
		return Decoy{}, fmt.Errorf("%w: %s", domain.ErrUnknownTemplate, templateName)
	}
	if len(category.BaseNames) == 0 {
		return Decoy{}, fmt.Errorf("%w: wordlist for category %s is empty", domain.ErrConfiguration, category.Name)
	}
	if len(category.Extensions) == 0 {
		return Decoy{}, fmt.Errorf("%w: category %s has no extensions", domain.ErrConfiguration, category.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := category.BaseNames[s.rng.IntN(len(category.BaseNames))]
	ext := category.Extensions[s.rng.IntN(len(category.Extensions))]
	created, modified := s.timestamps(s.clock.Now())

	return Decoy{
		Category:   category.Name,
		Filename:   base + "." + ext,
		CreatedAt:  created,
		ModifiedAt: modified,
	}, nil
}

// Pick returns a uniform index in [0, n). n must be positive.
func (s *Synthesizer) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Synthesizer) timestamps(now time.Time) (created, modified time.Time) {
	earliest := now.Add(-decoyMaxAge)
	created = earliest.Add(time.Duration(s.rng.Int64N(int64(decoyMaxAge - decoyMinAge))))

	// created is at least decoyMinAge before now, so the span is positive.
	modified = created.Add(time.Duration(s.rng.Int64N(int64(now.Sub(created)))))
	return created, modified
}
