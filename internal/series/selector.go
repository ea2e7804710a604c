package series

import (
	"math/rand"
	"time"
)

// Source supplies the random draw for start-date selection. Injecting it
// keeps selection reproducible in tests.
type Source interface {
	Intn(n int) int
}

// NewRandSource returns a Source seeded from seed
func NewRandSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Picker selects a pseudo-random admissible game start date.
//
// Eligibility is an inclusive calendar window [now-maxDays, now-minDays]
// compared against trading dates, so the candidate pool is implicitly
// trading-day-filtered. The draw is uniform over candidates.
type Picker struct {
	src     Source
	minDays int
	maxDays int
}

// NewPicker creates a Picker over the [minDays, maxDays] lookback window
func NewPicker(src Source, minDays, maxDays int) *Picker {
	return &Picker{
		src:     src,
		minDays: minDays,
		maxDays: maxDays,
	}
}

// Pick returns a uniformly drawn trading date within the eligibility
// window, or ErrNoCandidate when the series has no date in the window.
func (p *Picker) Pick(s *Series, now time.Time) (time.Time, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	from := day.AddDate(0, 0, -p.maxDays)
	to := day.AddDate(0, 0, -p.minDays)

	candidates := s.PositionsBetween(from, to)
	if len(candidates) == 0 {
		return time.Time{}, ErrNoCandidate
	}

	pos := candidates[p.src.Intn(len(candidates))]
	return s.At(pos).Date, nil
}
