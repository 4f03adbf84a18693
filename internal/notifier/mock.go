package notifier

import (
	"sync"

	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SendIngestSummaryFunc    func(summary reconcile.Summary, tournamentName string, dryRun bool) error
	SendRecomputeSummaryFunc func(summary rating.Summary, dryRun bool) error
	SendLeaderboardFunc      func(rankings []league.PlayerRanking, dryRun bool) error

	// Call records
	SendIngestSummaryCalls []struct {
		Summary        reconcile.Summary
		TournamentName string
	}
	SendRecomputeSummaryCalls []rating.Summary
	SendLeaderboardCalls      [][]league.PlayerRanking
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendIngestSummaryCalls = nil
	m.SendRecomputeSummaryCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) SendIngestSummary(summary reconcile.Summary, tournamentName string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendIngestSummaryCalls = append(m.SendIngestSummaryCalls, struct {
		Summary        reconcile.Summary
		TournamentName string
	}{summary, tournamentName})
	if m.SendIngestSummaryFunc != nil {
		return m.SendIngestSummaryFunc(summary, tournamentName, dryRun)
	}
	return nil
}

func (m *Mock) SendRecomputeSummary(summary rating.Summary, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRecomputeSummaryCalls = append(m.SendRecomputeSummaryCalls, summary)
	if m.SendRecomputeSummaryFunc != nil {
		return m.SendRecomputeSummaryFunc(summary, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(rankings []league.PlayerRanking, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, rankings)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(rankings, dryRun)
	}
	return nil
}

var _ Notifier = (*Mock)(nil)
