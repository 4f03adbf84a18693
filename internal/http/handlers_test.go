package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/config"
	"github.com/tmajkov/sideout/internal/database"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/pipeline"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
	"github.com/vmihailenco/msgpack/v5"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, cbvaClient cbva.CbvaClient, notifierMock notifier.Notifier) (*Server, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	cfg := config.Config{Cbva: config.CbvaConfig{StartYear: 2024}}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	pubsubMock := pubsub.NewMock("TEST")
	engine := rating.New(store, metricsSvc)
	pipe := pipeline.New(reconcile.New(store, metricsSvc), engine, notifierMock, pubsubMock)
	server := NewServer(store, metricsSvc, metricsHandler, cfg, cbvaClient, notifierMock, pipe, engine, pubsubMock)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
		db.Close()
	}
	return server, teardown
}

func sampleRecord() *cbva.TournamentRecord {
	return &cbva.TournamentRecord{
		Tournament: cbva.TournamentMetadata{ExternalID: "mb-open", Name: "Manhattan Beach Open"},
		Teams: []cbva.TeamRecord{
			{ExternalID: "teamA", Player1ExternalID: "p1", Player2ExternalID: "p2"},
			{ExternalID: "teamB", Player1ExternalID: "p3", Player2ExternalID: "p4"},
		},
		Matches: []cbva.MatchRecord{
			{
				Team1ExternalID: "teamA",
				Team2ExternalID: "teamB",
				Type:            cbva.MatchTypePoolPlay,
				Sets:            []cbva.SetScore{{Team1: 21, Team2: 18}},
			},
		},
	}
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestScrapeTournamentHandler(t *testing.T) {
	mock := cbva.NewMock()
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	notifierMock := notifier.NewMock()
	server, teardown := setupTestServer(t, mock, notifierMock)
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape/tournament?id=mb-open", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Reconcile.SetsCreated)
	assert.Equal(t, 1, result.Rating.SetsApplied)

	counts, err := server.Store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Players)
	require.Len(t, notifierMock.SendIngestSummaryCalls, 1)
}

func TestScrapeTournamentHandler_MissingID(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape/tournament", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestScrapeHandler_Inline(t *testing.T) {
	mock := cbva.NewMock()
	mock.ListTournamentsFunc = func(startYear, endYear int) ([]cbva.TournamentRef, error) {
		return []cbva.TournamentRef{{ExternalID: "mb-open"}}, nil
	}
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape?inline=true", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	counts, err := server.Store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Tournaments)
	assert.Equal(t, 1, counts.Sets)
}

func TestScrapeHandler_PublishesByDefault(t *testing.T) {
	mock := cbva.NewMock()
	mock.ListTournamentsFunc = func(startYear, endYear int) ([]cbva.TournamentRef, error) {
		return []cbva.TournamentRef{{ExternalID: "mb-open"}}, nil
	}
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	// Nothing lands in the store until the push subscription delivers.
	counts, err := server.Store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Tournaments)

	pubsubMock := server.pubsub.(*pubsub.MockPubSubClient)
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, "tournament-scraped", pubsubMock.SendMessageCalls[0].Topic)
}

func TestScrapeHandler_DryRunPublishesNothing(t *testing.T) {
	mock := cbva.NewMock()
	mock.ListTournamentsFunc = func(startYear, endYear int) ([]cbva.TournamentRef, error) {
		return []cbva.TournamentRef{{ExternalID: "mb-open"}}, nil
	}
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape?dry_run=true", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	pubsubMock := server.pubsub.(*pubsub.MockPubSubClient)
	assert.Empty(t, pubsubMock.SendMessageCalls)

	counts, err := server.Store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Tournaments)
}

func TestScrapeHandler_Limit(t *testing.T) {
	mock := cbva.NewMock()
	mock.ListTournamentsFunc = func(startYear, endYear int) ([]cbva.TournamentRef, error) {
		return []cbva.TournamentRef{{ExternalID: "mb-open"}, {ExternalID: "hermosa-aa"}}, nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/scrape?limit=1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, mock.FetchTournamentCalls, 1)
	assert.Equal(t, "mb-open", mock.FetchTournamentCalls[0])
}

func TestReconcileHandler(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	// Wire the mock to decode real MessagePack, mirroring the live client.
	pubsubMock := server.pubsub.(*pubsub.MockPubSubClient)
	pubsubMock.ProcessMessageFunc = func(data []byte, returnValue any) error {
		return msgpack.Unmarshal(data, returnValue)
	}

	payload, err := msgpack.Marshal(sampleRecord())
	require.NoError(t, err)

	wrapper := map[string]any{
		"subscription": "projects/test/subscriptions/reconcile",
		"message": map[string]any{
			"data": base64.StdEncoding.EncodeToString(payload),
		},
	}
	body, err := json.Marshal(wrapper)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/reconcile", bytes.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	counts, err := server.Store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Tournaments)
	assert.Equal(t, 1, counts.Sets)
	assert.Equal(t, 4, counts.RatingEvents)
}

func TestReconcileHandler_InvalidJSON(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/reconcile", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecomputeHandler_Full(t *testing.T) {
	mock := cbva.NewMock()
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	// Ingest first so there is something to recompute.
	req, _ := http.NewRequest("POST", "/scrape/tournament?id=mb-open", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req, err := http.NewRequest("POST", "/recompute?full=true", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var summary rating.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.SetsApplied)
}

func TestRecomputeHandler_InvalidFrom(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("POST", "/recompute?from=yesterday", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRankingsHandler(t *testing.T) {
	mock := cbva.NewMock()
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, _ := http.NewRequest("POST", "/scrape/tournament?id=mb-open", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req, err := http.NewRequest("GET", "/rankings?limit=2", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var rankings []league.PlayerRanking
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rankings))
	require.Len(t, rankings, 2)
	assert.Equal(t, 1516.0, rankings[0].Rating)
}

func TestPlayerHistoryHandler(t *testing.T) {
	mock := cbva.NewMock()
	mock.FetchTournamentFunc = func(externalID string) (*cbva.TournamentRecord, error) {
		return sampleRecord(), nil
	}
	server, teardown := setupTestServer(t, mock, notifier.NewMock())
	defer teardown()

	req, _ := http.NewRequest("POST", "/scrape/tournament?id=mb-open", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req, err := http.NewRequest("GET", "/history?player=p1", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var history []league.RatingEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, 1500.0, history[0].RatingBefore)
	assert.Equal(t, 1516.0, history[0].RatingAfter)
}

func TestPlayerHistoryHandler_MissingParam(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("GET", "/history", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotifyRankingsHandler(t *testing.T) {
	notifierMock := notifier.NewMock()
	server, teardown := setupTestServer(t, cbva.NewMock(), notifierMock)
	defer teardown()

	req, err := http.NewRequest("POST", "/notify-rankings?dry_run=true", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notifierMock.SendLeaderboardCalls, 1)
}

func TestStatsHandler(t *testing.T) {
	server, teardown := setupTestServer(t, cbva.NewMock(), notifier.NewMock())
	defer teardown()

	req, err := http.NewRequest("GET", "/stats", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var counts league.Counts
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, 0, counts.Players)
}
