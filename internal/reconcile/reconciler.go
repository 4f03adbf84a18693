package reconcile

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
)

// New creates a new Reconciler.
func New(store league.LeagueStore, metrics metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (r *Reconciler) tournamentLock(externalID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[externalID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[externalID] = lock
	}
	return lock
}

// Reconcile folds one scraped tournament record into the entity graph. The
// operation is idempotent: re-ingesting the same record changes nothing, and
// divergent re-ingestion keeps stored values while flagging conflicts.
// Malformed or dangling records become warnings; only store failures abort.
func (r *Reconciler) Reconcile(record cbva.TournamentRecord) (Summary, error) {
	lock := r.tournamentLock(record.Tournament.ExternalID)
	lock.Lock()
	defer lock.Unlock()

	summary := Summary{
		BatchID:              uuid.NewString(),
		TournamentExternalID: record.Tournament.ExternalID,
	}
	warn := func(kind WarningKind, format string, args ...any) {
		summary.Warnings = append(summary.Warnings, Warning{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	tournamentID, err := r.store.ResolveTournament(record.Tournament)
	if err != nil {
		return summary, fmt.Errorf("failed to resolve tournament: %w", err)
	}
	summary.TournamentID = tournamentID

	log.Info("Reconciling tournament",
		"batchID", summary.BatchID,
		"tournament", record.Tournament.ExternalID,
		"teams", len(record.Teams),
		"matches", len(record.Matches))

	teamIDs := make(map[string]int64, len(record.Teams))
	players := make(map[string]int64)
	for _, team := range record.Teams {
		if team.ExternalID == "" || team.Player1ExternalID == "" || team.Player2ExternalID == "" {
			warn(WarningValidation, "team %q has a missing identifier, skipping", team.ExternalID)
			summary.TeamsSkipped++
			continue
		}
		p1, err := r.resolvePlayer(players, team.Player1ExternalID)
		if err != nil {
			return summary, err
		}
		p2, err := r.resolvePlayer(players, team.Player2ExternalID)
		if err != nil {
			return summary, err
		}
		teamID, err := r.store.ResolveTeam(team.ExternalID, tournamentID, p1, p2)
		if err != nil {
			return summary, fmt.Errorf("failed to resolve team %s: %w", team.ExternalID, err)
		}
		teamIDs[team.ExternalID] = teamID
		summary.TeamsResolved++
	}
	summary.PlayersResolved = len(players)

	for _, match := range record.Matches {
		team1ID, ok1 := teamIDs[match.Team1ExternalID]
		team2ID, ok2 := teamIDs[match.Team2ExternalID]
		if !ok1 || !ok2 {
			warn(WarningReference, "match %s vs %s references an unknown team, skipping",
				match.Team1ExternalID, match.Team2ExternalID)
			summary.MatchesSkipped++
			continue
		}
		if team1ID == team2ID {
			warn(WarningValidation, "match pairs team %s against itself, skipping", match.Team1ExternalID)
			summary.MatchesSkipped++
			continue
		}

		// Canonical orientation: the lower team id is team1. Matches
		// scraped from the opposite team's page converge on one row.
		sets := match.Sets
		if team1ID > team2ID {
			team1ID, team2ID = team2ID, team1ID
			flipped := make([]cbva.SetScore, len(sets))
			for i, s := range sets {
				flipped[i] = cbva.SetScore{Team1: s.Team2, Team2: s.Team1}
			}
			sets = flipped
		}

		upsert, err := r.store.UpsertMatch(tournamentID, team1ID, team2ID, string(match.Type), match.Label)
		if err != nil {
			return summary, fmt.Errorf("failed to upsert match: %w", err)
		}
		summary.MatchesUpserted++

		for i, set := range sets {
			if set.Team1 < 0 || set.Team2 < 0 {
				warn(WarningValidation, "set %d of match %d has a negative score (%d-%d), skipping",
					i+1, upsert.ID, set.Team1, set.Team2)
				summary.SetsSkipped++
				continue
			}
			if set.Team1 == set.Team2 {
				warn(WarningValidation, "set %d of match %d is tied %d-%d, skipping",
					i+1, upsert.ID, set.Team1, set.Team2)
				summary.SetsSkipped++
				continue
			}
			stored, err := r.store.UpsertSet(upsert.ID, i+1, set.Team1, set.Team2)
			if err != nil {
				return summary, fmt.Errorf("failed to upsert set: %w", err)
			}
			if stored.Created {
				summary.SetsCreated++
			} else {
				summary.SetsExisting++
			}
			if stored.Conflict {
				warn(WarningConflict, "set %d of match %d re-ingested with %d-%d, keeping stored %d-%d",
					i+1, upsert.ID, set.Team1, set.Team2, stored.Team1Score, stored.Team2Score)
			}
		}

		// Tally the winner from every stored set of the match, not just the
		// ones this batch carried. A partial or conflicting re-scrape can
		// only change the winner by changing the stored set graph.
		storedSets, err := r.store.ListSetsForMatch(upsert.ID)
		if err != nil {
			return summary, fmt.Errorf("failed to list stored sets: %w", err)
		}
		var team1Wins, team2Wins int
		for _, set := range storedSets {
			if set.Team1Score > set.Team2Score {
				team1Wins++
			} else if set.Team2Score > set.Team1Score {
				team2Wins++
			}
		}

		winner := majorityWinner(team1ID, team2ID, team1Wins, team2Wins)
		if winner == nil && team1Wins+team2Wins > 0 {
			warn(WarningIncomplete, "match %d has no majority winner (%d-%d sets)", upsert.ID, team1Wins, team2Wins)
		}
		if err := r.store.SetMatchWinner(upsert.ID, winner); err != nil {
			return summary, fmt.Errorf("failed to set match winner: %w", err)
		}
	}

	if r.metrics != nil {
		r.metrics.IncTournamentsIngested()
		r.metrics.AddReconcileWarnings(float64(len(summary.Warnings)))
	}

	log.Info("Reconciled tournament",
		"batchID", summary.BatchID,
		"tournament", record.Tournament.ExternalID,
		"players", summary.PlayersResolved,
		"teams", summary.TeamsResolved,
		"matches", summary.MatchesUpserted,
		"setsCreated", summary.SetsCreated,
		"warnings", len(summary.Warnings))
	return summary, nil
}

func (r *Reconciler) resolvePlayer(cache map[string]int64, externalID string) (int64, error) {
	if id, ok := cache[externalID]; ok {
		return id, nil
	}
	id, err := r.store.ResolvePlayer(externalID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve player %s: %w", externalID, err)
	}
	cache[externalID] = id
	return id, nil
}

// majorityWinner returns the team winning the strict majority of sets, or nil
// when the sets split evenly or none were stored.
func majorityWinner(team1ID, team2ID int64, team1Wins, team2Wins int) *int64 {
	switch {
	case team1Wins > team2Wins:
		return &team1ID
	case team2Wins > team1Wins:
		return &team2ID
	default:
		return nil
	}
}
