package rating

import (
	"sync"

	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
)

const (
	// BaselineRating is the rating every player starts at.
	BaselineRating = 1500.0
	// KFactor scales how far one set moves a rating.
	KFactor = 32.0
)

// Engine applies the per-set rating rule to the stored entity graph. All
// rating mutations serialize on the engine mutex so concurrent triggers
// cannot interleave.
type Engine struct {
	store   league.LeagueStore
	metrics metrics.Metrics
	mu      sync.Mutex
}

// Summary reports what one rating run did.
type Summary struct {
	SetsApplied int     `json:"sets_applied"`
	SetsSkipped int     `json:"sets_skipped"`
	Duration    float64 `json:"duration_seconds"`
	// Note carries a correctness caveat for windowed recomputes.
	Note string `json:"note,omitempty"`
}
