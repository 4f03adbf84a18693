package notifier

import (
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// After a tournament batch lands
	SendIngestSummary(summary reconcile.Summary, tournamentName string, dryRun bool) error
	// After a rating run
	SendRecomputeSummary(summary rating.Summary, dryRun bool) error
	// On demand
	SendLeaderboard(rankings []league.PlayerRanking, dryRun bool) error
}
