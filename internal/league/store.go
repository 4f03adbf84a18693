package league

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmajkov/sideout/internal/cbva"
)

const dateLayout = "2006-01-02"

// New creates a new LeagueStore.
func New(db *sql.DB) LeagueStore {
	return &store{
		db: db,
	}
}

// ResolvePlayer returns the internal id for a player's external code,
// creating the player at the baseline rating on first sight.
func (s *store) ResolvePlayer(externalID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if externalID == "" {
		return 0, fmt.Errorf("player external id must not be empty")
	}

	// The no-op DO UPDATE makes RETURNING yield the existing row.
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO players (external_id)
		VALUES (?)
		ON CONFLICT(external_id) DO UPDATE SET external_id = excluded.external_id
		RETURNING id
	`, externalID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve player %s: %w", externalID, err)
	}
	return id, nil
}

// ResolveTournament returns the internal id for a tournament's external code,
// creating it on first sight. A later scrape may fill in a previously unknown
// date or name, but never blanks out a stored one.
func (s *store) ResolveTournament(meta cbva.TournamentMetadata) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meta.ExternalID == "" {
		return 0, fmt.Errorf("tournament external id must not be empty")
	}

	var date sql.NullString
	if meta.Date != nil {
		date = sql.NullString{String: meta.Date.Format(dateLayout), Valid: true}
	}

	var id int64
	err := s.db.QueryRow(`
		INSERT INTO tournaments (external_id, name, url, date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = COALESCE(NULLIF(excluded.name, ''), tournaments.name),
			date = COALESCE(excluded.date, tournaments.date)
		RETURNING id
	`, meta.ExternalID, meta.Name, meta.URL, date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve tournament %s: %w", meta.ExternalID, err)
	}
	return id, nil
}

// ResolveTeam returns the internal id for a team's external code within a
// tournament, creating it on first sight. The player pair is immutable: a
// conflicting re-resolve returns the stored team untouched.
func (s *store) ResolveTeam(externalID string, tournamentID, player1ID, player2ID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if externalID == "" {
		return 0, fmt.Errorf("team external id must not be empty")
	}

	var id int64
	err := s.db.QueryRow(`
		INSERT INTO teams (external_id, tournament_id, player1_id, player2_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id, tournament_id) DO UPDATE SET external_id = excluded.external_id
		RETURNING id
	`, externalID, tournamentID, player1ID, player2ID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve team %s in tournament %d: %w", externalID, tournamentID, err)
	}
	return id, nil
}

// LookupTeam fetches a team by external code and tournament. Returns nil when
// the team does not exist.
func (s *store) LookupTeam(externalID string, tournamentID int64) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var team Team
	err := s.db.QueryRow(`
		SELECT id, external_id, tournament_id, player1_id, player2_id
		FROM teams
		WHERE external_id = ? AND tournament_id = ?
	`, externalID, tournamentID).Scan(&team.ID, &team.ExternalID, &team.TournamentID, &team.Player1ID, &team.Player2ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up team %s: %w", externalID, err)
	}
	return &team, nil
}

// UpsertMatch inserts a match keyed by its team pair within the tournament.
// Callers must pass team1ID < team2ID so the unordered pair is canonical.
// Type and label follow the latest scrape; the winner is never touched here.
func (s *store) UpsertMatch(tournamentID, team1ID, team2ID int64, matchType, label string) (MatchUpsert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if team1ID > team2ID {
		return MatchUpsert{}, fmt.Errorf("match team pair not normalized: %d > %d", team1ID, team2ID)
	}

	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM matches
		WHERE tournament_id = ? AND team1_id = ? AND team2_id = ?
	`, tournamentID, team1ID, team2ID).Scan(&id)
	if err == nil {
		_, err = s.db.Exec(`UPDATE matches SET match_type = ?, label = ? WHERE id = ?`, matchType, label, id)
		if err != nil {
			return MatchUpsert{}, fmt.Errorf("failed to update match %d: %w", id, err)
		}
		return MatchUpsert{ID: id, Created: false}, nil
	}
	if err != sql.ErrNoRows {
		return MatchUpsert{}, fmt.Errorf("failed to check for existing match: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO matches (tournament_id, team1_id, team2_id, match_type, label)
		VALUES (?, ?, ?, ?, ?)
	`, tournamentID, team1ID, team2ID, matchType, label)
	if err != nil {
		return MatchUpsert{}, fmt.Errorf("failed to insert match: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return MatchUpsert{}, fmt.Errorf("failed to read match id: %w", err)
	}
	return MatchUpsert{ID: id, Created: true}, nil
}

// SetMatchWinner records (or clears) the winning team of a match.
func (s *store) SetMatchWinner(matchID int64, winnerTeamID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var winner sql.NullInt64
	if winnerTeamID != nil {
		winner = sql.NullInt64{Int64: *winnerTeamID, Valid: true}
	}
	_, err := s.db.Exec(`UPDATE matches SET winner_team_id = ? WHERE id = ?`, winner, matchID)
	if err != nil {
		return fmt.Errorf("failed to set winner for match %d: %w", matchID, err)
	}
	return nil
}

// UpsertSet inserts one set keyed by (match, set number). An existing set is
// never overwritten: if the incoming scores differ the stored value wins and
// the result is flagged as a conflict.
func (s *store) UpsertSet(matchID int64, setNumber, team1Score, team2Score int) (SetUpsert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		id               int64
		stored1, stored2 int
	)
	err := s.db.QueryRow(`
		SELECT id, team1_score, team2_score FROM sets
		WHERE match_id = ? AND set_number = ?
	`, matchID, setNumber).Scan(&id, &stored1, &stored2)
	if err == nil {
		conflict := stored1 != team1Score || stored2 != team2Score
		if conflict {
			log.Warn("Set score conflict on re-ingestion, keeping stored scores",
				"matchID", matchID, "set", setNumber,
				"stored", fmt.Sprintf("%d-%d", stored1, stored2),
				"incoming", fmt.Sprintf("%d-%d", team1Score, team2Score))
		}
		return SetUpsert{ID: id, Created: false, Conflict: conflict, Team1Score: stored1, Team2Score: stored2}, nil
	}
	if err != sql.ErrNoRows {
		return SetUpsert{}, fmt.Errorf("failed to check for existing set: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO sets (match_id, set_number, team1_score, team2_score)
		VALUES (?, ?, ?, ?)
	`, matchID, setNumber, team1Score, team2Score)
	if err != nil {
		return SetUpsert{}, fmt.Errorf("failed to insert set: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return SetUpsert{}, fmt.Errorf("failed to read set id: %w", err)
	}
	return SetUpsert{ID: id, Created: true, Team1Score: team1Score, Team2Score: team2Score}, nil
}

// ListSetsForMatch returns every stored set of a match in sequence order.
func (s *store) ListSetsForMatch(matchID int64) ([]MatchSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT set_number, team1_score, team2_score FROM sets
		WHERE match_id = ?
		ORDER BY set_number ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets for match: %w", err)
	}
	defer rows.Close()

	var sets []MatchSet
	for rows.Next() {
		var set MatchSet
		if err := rows.Scan(&set.SetNumber, &set.Team1Score, &set.Team2Score); err != nil {
			return nil, fmt.Errorf("failed to scan match set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// GetPlayerRatings returns the current rating per player id.
func (s *store) GetPlayerRatings(playerIDs []int64) (map[int64]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ratings := make(map[int64]float64, len(playerIDs))
	if len(playerIDs) == 0 {
		return ratings, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(playerIDs)), ",")
	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}

	rows, err := s.db.Query(`SELECT id, rating FROM players WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query player ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var rating float64
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan player rating: %w", err)
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

// HasRatingEvents reports whether any rating event exists for the set. All
// four events of a set are written in one transaction, so this is the per-set
// idempotence check.
func (s *store) HasRatingEvents(setID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM rating_events WHERE set_id = ?)`, setID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check rating events for set %d: %w", setID, err)
	}
	return exists, nil
}

// ApplyRatingEvents writes a set's rating events and the matching player
// rating updates in a single transaction. A duplicate (player, set) pair is
// left untouched along with the player's rating.
func (s *store) ApplyRatingEvents(events []RatingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rating transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		res, err := tx.Exec(`
			INSERT INTO rating_events (player_id, set_id, rating_before, rating_after, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(player_id, set_id) DO NOTHING
		`, e.PlayerID, e.SetID, e.RatingBefore, e.RatingAfter, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating event for player %d: %w", e.PlayerID, err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rating event result: %w", err)
		}
		if inserted == 0 {
			continue
		}
		if _, err := tx.Exec(`UPDATE players SET rating = ? WHERE id = ?`, e.RatingAfter, e.PlayerID); err != nil {
			return fmt.Errorf("failed to update rating for player %d: %w", e.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating transaction: %w", err)
	}
	return nil
}

// ResetRatings deletes the whole rating history and resets every player to
// the baseline. Used before a full recompute.
func (s *store) ResetRatings(baseline float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rating_events`); err != nil {
		return fmt.Errorf("failed to clear rating history: %w", err)
	}
	if _, err := tx.Exec(`UPDATE players SET rating = ?`, baseline); err != nil {
		return fmt.Errorf("failed to reset player ratings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset transaction: %w", err)
	}
	log.Info("Reset all player ratings", "baseline", baseline)
	return nil
}

// ratingSetQuery joins sets with their teams and tournament. The ORDER BY is
// the canonical replay order: tournament date (unknown dates last, ties broken
// by tournament id), then match creation order, then set number.
const ratingSetQuery = `
	SELECT
		s.id, s.set_number, s.team1_score, s.team2_score,
		m.id,
		t1.player1_id, t1.player2_id,
		t2.player1_id, t2.player2_id,
		tn.id, tn.date
	FROM sets s
	JOIN matches m ON s.match_id = m.id
	JOIN teams t1 ON m.team1_id = t1.id
	JOIN teams t2 ON m.team2_id = t2.id
	JOIN tournaments tn ON m.tournament_id = tn.id
	%s
	ORDER BY (tn.date IS NULL) ASC, tn.date ASC, tn.id ASC, m.id ASC, s.set_number ASC
`

func (s *store) queryRatingSets(where string, args ...any) ([]RatingSet, error) {
	rows, err := s.db.Query(fmt.Sprintf(ratingSetQuery, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets for rating: %w", err)
	}
	defer rows.Close()

	var sets []RatingSet
	for rows.Next() {
		var rs RatingSet
		var date sql.NullString
		err := rows.Scan(
			&rs.SetID, &rs.SetNumber, &rs.Team1Score, &rs.Team2Score,
			&rs.MatchID,
			&rs.Team1Players[0], &rs.Team1Players[1],
			&rs.Team2Players[0], &rs.Team2Players[1],
			&rs.TournamentID, &date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating set: %w", err)
		}
		if date.Valid {
			if d, err := time.Parse(dateLayout, date.String); err == nil {
				rs.TournamentDate = &d
			}
		}
		sets = append(sets, rs)
	}
	return sets, rows.Err()
}

// ListSetsForRating returns every stored set in canonical replay order.
func (s *store) ListSetsForRating() ([]RatingSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRatingSets("")
}

// ListSetsForRatingSince returns the sets of tournaments dated on or after
// fromDate. Tournaments with unknown dates sort after every checkpoint, so
// they are always included.
func (s *store) ListSetsForRatingSince(fromDate string) ([]RatingSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRatingSets("WHERE tn.date IS NULL OR tn.date >= ?", fromDate)
}

// ListSetsForTournament returns one tournament's sets in replay order.
func (s *store) ListSetsForTournament(tournamentID int64) ([]RatingSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRatingSets("WHERE tn.id = ?", tournamentID)
}

// ListPlayersByRating returns the leaderboard, best first.
func (s *store) ListPlayersByRating(limit int) ([]PlayerRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT external_id, rating FROM players
		ORDER BY rating DESC, external_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings []PlayerRanking
	for rows.Next() {
		var r PlayerRanking
		if err := rows.Scan(&r.ExternalID, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}

// GetPlayerHistory returns a player's rating events in application order.
func (s *store) GetPlayerHistory(externalID string) ([]RatingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT e.id, e.player_id, e.set_id, e.rating_before, e.rating_after, e.created_at
		FROM rating_events e
		JOIN players p ON e.player_id = p.id
		WHERE p.external_id = ?
		ORDER BY e.id ASC
	`, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", externalID, err)
	}
	defer rows.Close()

	var events []RatingEvent
	for rows.Next() {
		var e RatingEvent
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.SetID, &e.RatingBefore, &e.RatingAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Counts returns row counts of the entity graph.
func (s *store) Counts() (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM tournaments),
			(SELECT COUNT(*) FROM teams),
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM sets),
			(SELECT COUNT(*) FROM rating_events)
	`).Scan(&c.Players, &c.Tournaments, &c.Teams, &c.Matches, &c.Sets, &c.RatingEvents)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count entities: %w", err)
	}
	return c, nil
}
