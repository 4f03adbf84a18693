package rating

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
)

// New creates a new rating Engine.
func New(store league.LeagueStore, metrics metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		metrics: metrics,
	}
}

// expectedScore is the classic Elo expectancy of the first team against the
// second, given team ratings.
func expectedScore(team, opponent float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponent-team)/400.0))
}

// ApplySet rates one set: both members of each team move by the same delta,
// computed from the team average ratings at the time of application. Returns
// false when the set was already rated or carries no decidable result.
func (e *Engine) ApplySet(set league.RatingSet) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applySet(set)
}

func (e *Engine) applySet(set league.RatingSet) (bool, error) {
	rated, err := e.store.HasRatingEvents(set.SetID)
	if err != nil {
		return false, err
	}
	if rated {
		return false, nil
	}
	if set.Team1Score == set.Team2Score {
		// Ties are filtered at ingestion, a stored one is left unrated.
		log.Warn("Skipping tied set", "setID", set.SetID)
		return false, nil
	}

	playerIDs := []int64{
		set.Team1Players[0], set.Team1Players[1],
		set.Team2Players[0], set.Team2Players[1],
	}
	ratings, err := e.store.GetPlayerRatings(playerIDs)
	if err != nil {
		return false, err
	}
	for _, id := range playerIDs {
		if _, ok := ratings[id]; !ok {
			return false, fmt.Errorf("no rating found for player %d", id)
		}
	}

	team1Avg := (ratings[set.Team1Players[0]] + ratings[set.Team1Players[1]]) / 2
	team2Avg := (ratings[set.Team2Players[0]] + ratings[set.Team2Players[1]]) / 2

	actual := 0.0
	if set.Team1Score > set.Team2Score {
		actual = 1.0
	}
	delta := KFactor * (actual - expectedScore(team1Avg, team2Avg))

	now := time.Now().Unix()
	events := make([]league.RatingEvent, 0, 4)
	for _, id := range set.Team1Players[:] {
		events = append(events, league.RatingEvent{
			PlayerID:     id,
			SetID:        set.SetID,
			RatingBefore: ratings[id],
			RatingAfter:  ratings[id] + delta,
			CreatedAt:    now,
		})
	}
	for _, id := range set.Team2Players[:] {
		events = append(events, league.RatingEvent{
			PlayerID:     id,
			SetID:        set.SetID,
			RatingBefore: ratings[id],
			RatingAfter:  ratings[id] - delta,
			CreatedAt:    now,
		})
	}

	if err := e.store.ApplyRatingEvents(events); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) applyAll(sets []league.RatingSet) (Summary, error) {
	start := time.Now()
	var summary Summary
	for _, set := range sets {
		applied, err := e.applySet(set)
		if err != nil {
			return summary, fmt.Errorf("failed to rate set %d: %w", set.SetID, err)
		}
		if applied {
			summary.SetsApplied++
		} else {
			summary.SetsSkipped++
		}
	}
	summary.Duration = time.Since(start).Seconds()

	if e.metrics != nil {
		e.metrics.AddSetsRated(float64(summary.SetsApplied))
		e.metrics.ObserveRecomputeDuration(summary.Duration)
	}
	return summary, nil
}

// ApplyTournament rates one tournament's unrated sets in replay order. Used
// as the incremental trigger after an ingest.
func (e *Engine) ApplyTournament(tournamentID int64) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sets, err := e.store.ListSetsForTournament(tournamentID)
	if err != nil {
		return Summary{}, err
	}
	summary, err := e.applyAll(sets)
	if err != nil {
		return summary, err
	}
	log.Info("Applied tournament ratings",
		"tournamentID", tournamentID,
		"applied", summary.SetsApplied,
		"skipped", summary.SetsSkipped)
	return summary, nil
}
