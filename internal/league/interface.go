package league

import "github.com/tmajkov/sideout/internal/cbva"

// LeagueStore defines the interface for the normalized tournament data.
//
// The Resolve* methods are idempotent get-or-create operations keyed by the
// upstream external code: calling them repeatedly with the same input always
// yields the same internal id.
type LeagueStore interface {
	ResolvePlayer(externalID string) (int64, error)
	ResolveTournament(meta cbva.TournamentMetadata) (int64, error)
	ResolveTeam(externalID string, tournamentID, player1ID, player2ID int64) (int64, error)
	LookupTeam(externalID string, tournamentID int64) (*Team, error)

	UpsertMatch(tournamentID, team1ID, team2ID int64, matchType, label string) (MatchUpsert, error)
	SetMatchWinner(matchID int64, winnerTeamID *int64) error
	UpsertSet(matchID int64, setNumber, team1Score, team2Score int) (SetUpsert, error)
	ListSetsForMatch(matchID int64) ([]MatchSet, error)

	GetPlayerRatings(playerIDs []int64) (map[int64]float64, error)
	HasRatingEvents(setID int64) (bool, error)
	ApplyRatingEvents(events []RatingEvent) error
	ResetRatings(baseline float64) error

	ListSetsForRating() ([]RatingSet, error)
	ListSetsForRatingSince(fromDate string) ([]RatingSet, error)
	ListSetsForTournament(tournamentID int64) ([]RatingSet, error)

	ListPlayersByRating(limit int) ([]PlayerRanking, error)
	GetPlayerHistory(externalID string) ([]RatingEvent, error)
	Counts() (Counts, error)
}
