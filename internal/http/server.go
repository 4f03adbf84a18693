package http

import (
	"net/http"

	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/config"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/pipeline"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
)

func NewServer(store league.LeagueStore, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, cbvaClient cbva.CbvaClient, notifier notifier.Notifier, pipeline *pipeline.Pipeline, engine *rating.Engine, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		CbvaClient:     cbvaClient,
		Notifier:       notifier,
		Pipeline:       pipeline,
		Engine:         engine,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/scrape", Chain(s.ScrapeHandler(), paramsMiddleware))
	s.Router.Handle("/scrape/tournament", Chain(s.ScrapeTournamentHandler(), paramsMiddleware))
	s.Router.Handle("/reconcile", Chain(s.ReconcileHandler(), paramsMiddleware))
	s.Router.Handle("/recompute", Chain(s.RecomputeHandler(), paramsMiddleware))
	s.Router.Handle("/rankings", Chain(s.RankingsHandler(), paramsMiddleware))
	s.Router.Handle("/history", Chain(s.PlayerHistoryHandler(), paramsMiddleware))
	s.Router.Handle("/stats", Chain(s.StatsHandler(), paramsMiddleware))
	s.Router.Handle("/notify-rankings", Chain(s.NotifyRankingsHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
