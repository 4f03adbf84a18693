package cbva

import "time"

// MatchType tags a match as pool play or playoff.
type MatchType string

const (
	MatchTypePoolPlay MatchType = "pool_play"
	MatchTypePlayoff  MatchType = "playoff"
)

// TournamentRef points at a tournament discovered on a year index page.
type TournamentRef struct {
	ExternalID string
	URL        string
}

// TournamentMetadata is the tournament info scraped from the /info page.
type TournamentMetadata struct {
	ExternalID string
	Name       string
	URL        string
	Date       *time.Time
}

// TeamRecord is one team as scraped from its team page: the team's own code
// plus the codes of its two players.
type TeamRecord struct {
	ExternalID        string
	Player1ExternalID string
	Player2ExternalID string
}

// SetScore is one set's score pair, oriented to the owning MatchRecord's
// team1/team2.
type SetScore struct {
	Team1 int `msgpack:"team1" json:"team1"`
	Team2 int `msgpack:"team2" json:"team2"`
}

// MatchRecord is one match between two teams of the same tournament.
type MatchRecord struct {
	Team1ExternalID string
	Team2ExternalID string
	Type            MatchType
	Label           string
	Sets            []SetScore
}

// TournamentRecord is one tournament's full scrape output, the unit handed to
// the reconciler.
type TournamentRecord struct {
	Tournament TournamentMetadata
	Teams      []TeamRecord
	Matches    []MatchRecord
}

// TeamGame is one match from the perspective of the team whose page it was
// scraped from. Scores are (our, their).
type TeamGame struct {
	OpponentTeamID string
	Sets           []SetScore
	Type           MatchType
	Label          string
}

// TeamPage is the parsed content of a single team page.
type TeamPage struct {
	TeamID    string
	PlayerIDs []string
	Games     []TeamGame
}
