package pipeline

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// New creates a new Pipeline.
func New(reconciler *reconcile.Reconciler, engine *rating.Engine, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Pipeline {
	return &Pipeline{
		reconciler: reconciler,
		engine:     engine,
		notifier:   notifier,
		pubsub:     pubsub,
	}
}

// Ingest reconciles one scraped tournament and immediately rates its new
// sets. A dry run logs what would happen without touching the store.
func (p *Pipeline) Ingest(record cbva.TournamentRecord, dryRun bool) (Result, error) {
	if dryRun {
		log.Info("[Dry Run] Would ingest tournament",
			"tournament", record.Tournament.ExternalID,
			"teams", len(record.Teams),
			"matches", len(record.Matches))
		return Result{}, nil
	}

	summary, err := p.reconciler.Reconcile(record)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reconcile tournament %s: %w", record.Tournament.ExternalID, err)
	}

	ratingSummary, err := p.engine.ApplyTournament(summary.TournamentID)
	if err != nil {
		return Result{Reconcile: summary}, fmt.Errorf("failed to rate tournament %s: %w", record.Tournament.ExternalID, err)
	}

	if err := p.notifier.SendIngestSummary(summary, record.Tournament.Name, dryRun); err != nil {
		// Notification failures never fail the ingest.
		log.Error("Failed to send ingest summary", "error", err, "tournament", record.Tournament.ExternalID)
	}

	return Result{Reconcile: summary, Rating: ratingSummary}, nil
}

// Publish hands a scraped tournament to the reconcile push subscription via
// pubsub instead of ingesting it inline.
func (p *Pipeline) Publish(record cbva.TournamentRecord) error {
	return p.pubsub.SendMessage(pubsub.EventTournamentScraped, record)
}
