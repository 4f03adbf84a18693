package reconcile_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/database"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/reconcile"
)

func setupReconciler(t *testing.T) (*reconcile.Reconciler, league.LeagueStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	r := reconcile.New(store, metrics.NewMock())
	teardown := func() {
		dbTeardown()
		db.Close()
	}
	return r, store, db, teardown
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
				Sets: []cbva.SetScore{
					{Team1: 21, Team2: 18},
					{Team1: 19, Team2: 21},
					{Team1: 15, Team2: 11},
				},
			},
		},
	}
}

func TestReconcile(t *testing.T) {
	r, store, db, teardown := setupReconciler(t)
	defer teardown()

	summary, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, 4, summary.PlayersResolved)
	assert.Equal(t, 2, summary.TeamsResolved)
	assert.Equal(t, 1, summary.MatchesUpserted)
	assert.Equal(t, 3, summary.SetsCreated)
	assert.Empty(t, summary.Warnings)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Players)
	assert.Equal(t, 1, counts.Matches)
	assert.Equal(t, 3, counts.Sets)

	// Team A won sets 1 and 3.
	teamA, err := store.LookupTeam("teamA", summary.TournamentID)
	require.NoError(t, err)
	var winner int64
	require.NoError(t, db.QueryRow(`SELECT winner_team_id FROM matches`).Scan(&winner))
	assert.Equal(t, teamA.ID, winner)
}

func TestReconcileIdempotent(t *testing.T) {
	r, store, _, teardown := setupReconciler(t)
	defer teardown()

	_, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)
	before, err := store.Counts()
	require.NoError(t, err)

	summary, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SetsCreated)
	assert.Equal(t, 3, summary.SetsExisting)
	assert.Empty(t, summary.Warnings)

	after, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, before, after, "re-ingesting the same record must not grow the graph")
}

func TestReconcileFlippedPerspective(t *testing.T) {
	r, store, _, teardown := setupReconciler(t)
	defer teardown()

	_, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)

	// The same match as seen from team B's page: teams swapped, scores
	// mirrored. This must converge on the stored row without conflicts.
	flipped := sampleRecord()
	flipped.Matches = []cbva.MatchRecord{
		{
			Team1ExternalID: "teamB",
			Team2ExternalID: "teamA",
			Type:            cbva.MatchTypePoolPlay,
			Sets: []cbva.SetScore{
				{Team1: 18, Team2: 21},
				{Team1: 21, Team2: 19},
				{Team1: 11, Team2: 15},
			},
		},
	}

	summary, err := r.Reconcile(flipped)
	require.NoError(t, err)
	assert.Empty(t, summary.Warnings)
	assert.Equal(t, 0, summary.SetsCreated)
	assert.Equal(t, 3, summary.SetsExisting)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Matches)
	assert.Equal(t, 3, counts.Sets)
}

func TestReconcileScoreConflict(t *testing.T) {
	r, _, db, teardown := setupReconciler(t)
	defer teardown()

	_, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)

	divergent := sampleRecord()
	divergent.Matches[0].Sets[0] = cbva.SetScore{Team1: 21, Team2: 10}

	summary, err := r.Reconcile(divergent)
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 1)
	assert.Equal(t, reconcile.WarningConflict, summary.Warnings[0].Kind)

	// Stored scores survive.
	var t2 int
	require.NoError(t, db.QueryRow(`SELECT team2_score FROM sets WHERE set_number = 1`).Scan(&t2))
	assert.Equal(t, 18, t2)
}

func TestReconcilePartialRescrapeKeepsWinner(t *testing.T) {
	r, store, db, teardown := setupReconciler(t)
	defer teardown()

	summary, err := r.Reconcile(sampleRecord())
	require.NoError(t, err)
	teamA, err := store.LookupTeam("teamA", summary.TournamentID)
	require.NoError(t, err)

	// A later scrape of the same match arrives without the decider.
	partial := sampleRecord()
	partial.Matches[0].Sets = partial.Matches[0].Sets[:2]

	_, err = r.Reconcile(partial)
	require.NoError(t, err)

	var winner int64
	require.NoError(t, db.QueryRow(`SELECT winner_team_id FROM matches`).Scan(&winner))
	assert.Equal(t, teamA.ID, winner, "a partial re-scrape must not clear the stored winner")

	// Same when a stored set re-arrives malformed and gets skipped.
	garbled := sampleRecord()
	garbled.Matches[0].Sets[2] = cbva.SetScore{Team1: 15, Team2: 15}

	rerun, err := r.Reconcile(garbled)
	require.NoError(t, err)
	assert.Equal(t, 1, rerun.SetsSkipped)

	require.NoError(t, db.QueryRow(`SELECT winner_team_id FROM matches`).Scan(&winner))
	assert.Equal(t, teamA.ID, winner)
}

func TestReconcileUnknownTeamReference(t *testing.T) {
	r, store, _, teardown := setupReconciler(t)
	defer teardown()

	record := sampleRecord()
	record.Matches = append(record.Matches, cbva.MatchRecord{
		Team1ExternalID: "teamA",
		Team2ExternalID: "ghost",
		Type:            cbva.MatchTypePoolPlay,
		Sets:            []cbva.SetScore{{Team1: 21, Team2: 15}},
	})

	summary, err := r.Reconcile(record)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchesUpserted)
	assert.Equal(t, 1, summary.MatchesSkipped)
	require.Len(t, summary.Warnings, 1)
	assert.Equal(t, reconcile.WarningReference, summary.Warnings[0].Kind)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Matches)
}

func TestReconcileValidationWarnings(t *testing.T) {
	r, store, _, teardown := setupReconciler(t)
	defer teardown()

	record := sampleRecord()
	record.Teams = append(record.Teams, cbva.TeamRecord{
		ExternalID: "teamC", Player1ExternalID: "p5", Player2ExternalID: "",
	})
	record.Matches[0].Sets = append(record.Matches[0].Sets,
		cbva.SetScore{Team1: 21, Team2: 21},
		cbva.SetScore{Team1: -1, Team2: 15},
	)

	summary, err := r.Reconcile(record)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TeamsSkipped)
	assert.Equal(t, 2, summary.SetsSkipped)
	assert.Equal(t, 3, summary.SetsCreated)
	assert.Len(t, summary.Warnings, 3)
	for _, w := range summary.Warnings {
		assert.Equal(t, reconcile.WarningValidation, w.Kind)
	}

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Teams)
	assert.Equal(t, 3, counts.Sets)
}

func TestReconcileNoMajorityWinner(t *testing.T) {
	r, _, db, teardown := setupReconciler(t)
	defer teardown()

	record := sampleRecord()
	record.Matches[0].Sets = []cbva.SetScore{
		{Team1: 21, Team2: 18},
		{Team1: 19, Team2: 21},
	}

	summary, err := r.Reconcile(record)
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 1)
	assert.Equal(t, reconcile.WarningIncomplete, summary.Warnings[0].Kind)

	var winner sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT winner_team_id FROM matches`).Scan(&winner))
	assert.False(t, winner.Valid, "a split match stores no winner")
}
