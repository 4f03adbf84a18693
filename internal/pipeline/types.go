package pipeline

import (
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// Pipeline drives a scraped tournament through reconciliation, incremental
// rating and notification. The reconciler and engine record their own
// metrics.
type Pipeline struct {
	reconciler *reconcile.Reconciler
	engine     *rating.Engine
	notifier   notifier.Notifier
	pubsub     pubsub.PubSubClient
}

// Result bundles what one ingest did.
type Result struct {
	Reconcile reconcile.Summary `json:"reconcile"`
	Rating    rating.Summary    `json:"rating"`
}
