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

type Server struct {
	Store          league.LeagueStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	CbvaClient     cbva.CbvaClient
	Notifier       notifier.Notifier
	Pipeline       *pipeline.Pipeline
	Engine         *rating.Engine
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
