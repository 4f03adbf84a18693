package reconcile

import (
	"sync"

	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
)

// WarningKind classifies a non-fatal problem found while reconciling a
// scraped tournament into the entity graph.
type WarningKind string

const (
	// WarningValidation marks malformed input: empty codes, negative or
	// tied set scores. The offending record is skipped.
	WarningValidation WarningKind = "validation"
	// WarningReference marks a match referencing a team the scrape never
	// listed. The match is skipped.
	WarningReference WarningKind = "reference"
	// WarningConflict marks a set re-ingested with different scores. The
	// stored scores win.
	WarningConflict WarningKind = "conflict"
	// WarningIncomplete marks a match with no majority set winner. The
	// match is stored without a winner.
	WarningIncomplete WarningKind = "incomplete"
)

// Warning is one non-fatal reconciliation problem. Only store failures abort
// a batch; everything else becomes a warning.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Summary reports what one reconciliation batch did.
type Summary struct {
	BatchID              string    `json:"batch_id"`
	TournamentID         int64     `json:"tournament_id"`
	TournamentExternalID string    `json:"tournament_external_id"`
	PlayersResolved      int       `json:"players_resolved"`
	TeamsResolved        int       `json:"teams_resolved"`
	TeamsSkipped         int       `json:"teams_skipped"`
	MatchesUpserted      int       `json:"matches_upserted"`
	MatchesSkipped       int       `json:"matches_skipped"`
	SetsCreated          int       `json:"sets_created"`
	SetsExisting         int       `json:"sets_existing"`
	SetsSkipped          int       `json:"sets_skipped"`
	Warnings             []Warning `json:"warnings,omitempty"`
}

// Reconciler folds scraped tournament records into the entity graph. Batches
// for different tournaments run concurrently; batches for the same tournament
// serialize on a per-tournament lock.
type Reconciler struct {
	store   league.LeagueStore
	metrics metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}
