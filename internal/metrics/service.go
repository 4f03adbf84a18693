package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ScraperRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_scraper_runs_total",
			Help: "The total number of times the CBVA scraper has run.",
		}),
		TournamentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_tournaments_ingested_total",
			Help: "The total number of tournaments reconciled into the entity graph.",
		}),
		SetsRated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_sets_rated_total",
			Help: "The total number of sets applied by the rating engine.",
		}),
		ReconcileWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_reconcile_warnings_total",
			Help: "The total number of non-fatal warnings emitted during reconciliation.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sideout_recompute_duration_seconds",
			Help:    "The duration of rating recompute runs.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sideout_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sideout_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ScraperRuns,
		s.TournamentsIngested,
		s.SetsRated,
		s.ReconcileWarnings,
		s.RecomputeDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncScraperRuns() {
	s.ScraperRuns.Inc()
}

func (s *Service) IncTournamentsIngested() {
	s.TournamentsIngested.Inc()
}

func (s *Service) AddSetsRated(count float64) {
	s.SetsRated.Add(count)
}

func (s *Service) AddReconcileWarnings(count float64) {
	s.ReconcileWarnings.Add(count)
}

func (s *Service) ObserveRecomputeDuration(duration float64) {
	s.RecomputeDuration.Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
