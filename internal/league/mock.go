package league

import (
	"sync"

	"github.com/tmajkov/sideout/internal/cbva"
)

// MockStore is a mock implementation of the LeagueStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	ResolvePlayerFunc          func(externalID string) (int64, error)
	ResolveTournamentFunc      func(meta cbva.TournamentMetadata) (int64, error)
	ResolveTeamFunc            func(externalID string, tournamentID, player1ID, player2ID int64) (int64, error)
	LookupTeamFunc             func(externalID string, tournamentID int64) (*Team, error)
	UpsertMatchFunc            func(tournamentID, team1ID, team2ID int64, matchType, label string) (MatchUpsert, error)
	SetMatchWinnerFunc         func(matchID int64, winnerTeamID *int64) error
	UpsertSetFunc              func(matchID int64, setNumber, team1Score, team2Score int) (SetUpsert, error)
	ListSetsForMatchFunc       func(matchID int64) ([]MatchSet, error)
	GetPlayerRatingsFunc       func(playerIDs []int64) (map[int64]float64, error)
	HasRatingEventsFunc        func(setID int64) (bool, error)
	ApplyRatingEventsFunc      func(events []RatingEvent) error
	ResetRatingsFunc           func(baseline float64) error
	ListSetsForRatingFunc      func() ([]RatingSet, error)
	ListSetsForRatingSinceFunc func(fromDate string) ([]RatingSet, error)
	ListSetsForTournamentFunc  func(tournamentID int64) ([]RatingSet, error)
	ListPlayersByRatingFunc    func(limit int) ([]PlayerRanking, error)
	GetPlayerHistoryFunc       func(externalID string) ([]RatingEvent, error)
	CountsFunc                 func() (Counts, error)

	// Call records
	ResolvePlayerCalls     []string
	ResolveTournamentCalls []cbva.TournamentMetadata
	ResolveTeamCalls       []struct {
		ExternalID           string
		TournamentID         int64
		Player1ID, Player2ID int64
	}
	UpsertMatchCalls []struct {
		TournamentID, Team1ID, Team2ID int64
		MatchType, Label               string
	}
	SetMatchWinnerCalls []struct {
		MatchID      int64
		WinnerTeamID *int64
	}
	UpsertSetCalls []struct {
		MatchID                           int64
		SetNumber, Team1Score, Team2Score int
	}
	ListSetsForMatchCalls  []int64
	ApplyRatingEventsCalls [][]RatingEvent
	ResetRatingsCalls      []float64
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolvePlayerCalls = nil
	m.ResolveTournamentCalls = nil
	m.ResolveTeamCalls = nil
	m.UpsertMatchCalls = nil
	m.SetMatchWinnerCalls = nil
	m.UpsertSetCalls = nil
	m.ListSetsForMatchCalls = nil
	m.ApplyRatingEventsCalls = nil
	m.ResetRatingsCalls = nil
}

func (m *MockStore) ResolvePlayer(externalID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolvePlayerCalls = append(m.ResolvePlayerCalls, externalID)
	if m.ResolvePlayerFunc != nil {
		return m.ResolvePlayerFunc(externalID)
	}
	return 0, nil
}

func (m *MockStore) ResolveTournament(meta cbva.TournamentMetadata) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveTournamentCalls = append(m.ResolveTournamentCalls, meta)
	if m.ResolveTournamentFunc != nil {
		return m.ResolveTournamentFunc(meta)
	}
	return 0, nil
}

func (m *MockStore) ResolveTeam(externalID string, tournamentID, player1ID, player2ID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveTeamCalls = append(m.ResolveTeamCalls, struct {
		ExternalID           string
		TournamentID         int64
		Player1ID, Player2ID int64
	}{externalID, tournamentID, player1ID, player2ID})
	if m.ResolveTeamFunc != nil {
		return m.ResolveTeamFunc(externalID, tournamentID, player1ID, player2ID)
	}
	return 0, nil
}

func (m *MockStore) LookupTeam(externalID string, tournamentID int64) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LookupTeamFunc != nil {
		return m.LookupTeamFunc(externalID, tournamentID)
	}
	return nil, nil
}

func (m *MockStore) UpsertMatch(tournamentID, team1ID, team2ID int64, matchType, label string) (MatchUpsert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertMatchCalls = append(m.UpsertMatchCalls, struct {
		TournamentID, Team1ID, Team2ID int64
		MatchType, Label               string
	}{tournamentID, team1ID, team2ID, matchType, label})
	if m.UpsertMatchFunc != nil {
		return m.UpsertMatchFunc(tournamentID, team1ID, team2ID, matchType, label)
	}
	return MatchUpsert{}, nil
}

func (m *MockStore) SetMatchWinner(matchID int64, winnerTeamID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetMatchWinnerCalls = append(m.SetMatchWinnerCalls, struct {
		MatchID      int64
		WinnerTeamID *int64
	}{matchID, winnerTeamID})
	if m.SetMatchWinnerFunc != nil {
		return m.SetMatchWinnerFunc(matchID, winnerTeamID)
	}
	return nil
}

func (m *MockStore) UpsertSet(matchID int64, setNumber, team1Score, team2Score int) (SetUpsert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertSetCalls = append(m.UpsertSetCalls, struct {
		MatchID                           int64
		SetNumber, Team1Score, Team2Score int
	}{matchID, setNumber, team1Score, team2Score})
	if m.UpsertSetFunc != nil {
		return m.UpsertSetFunc(matchID, setNumber, team1Score, team2Score)
	}
	return SetUpsert{}, nil
}

func (m *MockStore) ListSetsForMatch(matchID int64) ([]MatchSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListSetsForMatchCalls = append(m.ListSetsForMatchCalls, matchID)
	if m.ListSetsForMatchFunc != nil {
		return m.ListSetsForMatchFunc(matchID)
	}
	return nil, nil
}

func (m *MockStore) GetPlayerRatings(playerIDs []int64) (map[int64]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerRatingsFunc != nil {
		return m.GetPlayerRatingsFunc(playerIDs)
	}
	return map[int64]float64{}, nil
}

func (m *MockStore) HasRatingEvents(setID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HasRatingEventsFunc != nil {
		return m.HasRatingEventsFunc(setID)
	}
	return false, nil
}

func (m *MockStore) ApplyRatingEvents(events []RatingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyRatingEventsCalls = append(m.ApplyRatingEventsCalls, events)
	if m.ApplyRatingEventsFunc != nil {
		return m.ApplyRatingEventsFunc(events)
	}
	return nil
}

func (m *MockStore) ResetRatings(baseline float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetRatingsCalls = append(m.ResetRatingsCalls, baseline)
	if m.ResetRatingsFunc != nil {
		return m.ResetRatingsFunc(baseline)
	}
	return nil
}

func (m *MockStore) ListSetsForRating() ([]RatingSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListSetsForRatingFunc != nil {
		return m.ListSetsForRatingFunc()
	}
	return nil, nil
}

func (m *MockStore) ListSetsForRatingSince(fromDate string) ([]RatingSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListSetsForRatingSinceFunc != nil {
		return m.ListSetsForRatingSinceFunc(fromDate)
	}
	return nil, nil
}

func (m *MockStore) ListSetsForTournament(tournamentID int64) ([]RatingSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListSetsForTournamentFunc != nil {
		return m.ListSetsForTournamentFunc(tournamentID)
	}
	return nil, nil
}

func (m *MockStore) ListPlayersByRating(limit int) ([]PlayerRanking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListPlayersByRatingFunc != nil {
		return m.ListPlayersByRatingFunc(limit)
	}
	return nil, nil
}

func (m *MockStore) GetPlayerHistory(externalID string) ([]RatingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerHistoryFunc != nil {
		return m.GetPlayerHistoryFunc(externalID)
	}
	return nil, nil
}

func (m *MockStore) Counts() (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountsFunc != nil {
		return m.CountsFunc()
	}
	return Counts{}, nil
}

var _ LeagueStore = (*MockStore)(nil)
