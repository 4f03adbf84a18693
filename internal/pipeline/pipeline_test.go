package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/database"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/pipeline"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

func setupPipeline(t *testing.T) (*pipeline.Pipeline, league.LeagueStore, *notifier.Mock, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	metricsSvc := metrics.NewMock()
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock("test-project")
	p := pipeline.New(
		reconcile.New(store, metricsSvc),
		rating.New(store, metricsSvc),
		notifierMock,
		pubsubMock,
	)
	teardown := func() {
		dbTeardown()
		db.Close()
	}
	return p, store, notifierMock, pubsubMock, teardown
}

func sampleRecord() cbva.TournamentRecord {
	return cbva.TournamentRecord{
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

func TestIngest(t *testing.T) {
	p, store, notifierMock, _, teardown := setupPipeline(t)
	defer teardown()

	result, err := p.Ingest(sampleRecord(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Reconcile.SetsCreated)
	assert.Equal(t, 1, result.Rating.SetsApplied)

	// Ratings moved off the baseline right after the ingest.
	rankings, err := store.ListPlayersByRating(4)
	require.NoError(t, err)
	require.Len(t, rankings, 4)
	assert.Equal(t, 1516.0, rankings[0].Rating)
	assert.Equal(t, 1484.0, rankings[3].Rating)

	require.Len(t, notifierMock.SendIngestSummaryCalls, 1)
	assert.Equal(t, "Manhattan Beach Open", notifierMock.SendIngestSummaryCalls[0].TournamentName)
}

func TestIngestDryRun(t *testing.T) {
	p, store, notifierMock, _, teardown := setupPipeline(t)
	defer teardown()

	_, err := p.Ingest(sampleRecord(), true)
	require.NoError(t, err)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Players, "a dry run must not write")
	assert.Empty(t, notifierMock.SendIngestSummaryCalls)
}

func TestIngestNotifierFailureIsNotFatal(t *testing.T) {
	p, _, notifierMock, _, teardown := setupPipeline(t)
	defer teardown()

	notifierMock.SendIngestSummaryFunc = func(summary reconcile.Summary, tournamentName string, dryRun bool) error {
		return assert.AnError
	}

	result, err := p.Ingest(sampleRecord(), false)
	require.NoError(t, err, "a failed notification must not fail the ingest")
	assert.Equal(t, 1, result.Rating.SetsApplied)
}

func TestPublish(t *testing.T) {
	p, _, _, pubsubMock, teardown := setupPipeline(t)
	defer teardown()

	require.NoError(t, p.Publish(sampleRecord()))
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, "tournament-scraped", pubsubMock.SendMessageCalls[0].Topic)
}
