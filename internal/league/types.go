package league

import (
	"database/sql"
	"sync"
	"time"
)

// store handles all database operations for the league.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Player is one player keyed by their CBVA code. Rating is derived state,
// materialized from the rating_events history.
type Player struct {
	ID         int64
	ExternalID string
	Rating     float64
	CreatedAt  int64
}

// Tournament is one tournament. Date may be unknown.
type Tournament struct {
	ID         int64
	ExternalID string
	Name       string
	URL        string
	Date       *time.Time
}

// Team is a pair of players within a single tournament. The pair is immutable
// once created.
type Team struct {
	ID           int64
	ExternalID   string
	TournamentID int64
	Player1ID    int64
	Player2ID    int64
}

// MatchUpsert reports the outcome of a match upsert.
type MatchUpsert struct {
	ID      int64
	Created bool
}

// SetUpsert reports the outcome of a set upsert. Conflict means the set
// already existed with different scores; the stored scores win and are echoed
// back in Team1Score/Team2Score.
type SetUpsert struct {
	ID         int64
	Created    bool
	Conflict   bool
	Team1Score int
	Team2Score int
}

// MatchSet is one stored set of a match. Winner derivation works from the
// full stored list, never from whatever subset one batch happened to carry.
type MatchSet struct {
	SetNumber  int
	Team1Score int
	Team2Score int
}

// RatingEvent is one atomic application of the rating rule to one player for
// one set. Append-only.
type RatingEvent struct {
	ID           int64   `json:"id"`
	PlayerID     int64   `json:"player_id"`
	SetID        int64   `json:"set_id"`
	RatingBefore float64 `json:"rating_before"`
	RatingAfter  float64 `json:"rating_after"`
	CreatedAt    int64   `json:"created_at"`
}

// PlayerRanking is one row of the leaderboard.
type PlayerRanking struct {
	ExternalID string  `json:"external_id"`
	Rating     float64 `json:"rating"`
}

// RatingSet is one set joined with everything the rating engine needs: both
// teams' player ids and the tournament ordering key.
type RatingSet struct {
	SetID          int64
	MatchID        int64
	SetNumber      int
	Team1Score     int
	Team2Score     int
	Team1Players   [2]int64
	Team2Players   [2]int64
	TournamentID   int64
	TournamentDate *time.Time
}

// Counts summarizes the stored entity graph.
type Counts struct {
	Players      int `json:"players"`
	Tournaments  int `json:"tournaments"`
	Teams        int `json:"teams"`
	Matches      int `json:"matches"`
	Sets         int `json:"sets"`
	RatingEvents int `json:"rating_events"`
}
