package cbva

import "sync"

// MockClient is a mock implementation of the CbvaClient interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	ListTournamentsFunc   func(startYear, endYear int) ([]TournamentRef, error)
	GetTournamentInfoFunc func(externalID string) (TournamentMetadata, error)
	ListTeamIDsFunc       func(tournamentID string) ([]string, error)
	GetTeamPageFunc       func(tournamentID, teamID string) (*TeamPage, error)
	FetchTournamentFunc   func(externalID string) (*TournamentRecord, error)

	// Call records
	ListTournamentsCalls [][2]int
	FetchTournamentCalls []string
	GetTeamPageCalls     []struct{ TournamentID, TeamID string }
}

// NewMock creates a new mock instance.
func NewMock() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ListTournaments(startYear, endYear int) ([]TournamentRef, error) {
	m.mu.Lock()
	m.ListTournamentsCalls = append(m.ListTournamentsCalls, [2]int{startYear, endYear})
	m.mu.Unlock()
	if m.ListTournamentsFunc != nil {
		return m.ListTournamentsFunc(startYear, endYear)
	}
	return nil, nil
}

func (m *MockClient) GetTournamentInfo(externalID string) (TournamentMetadata, error) {
	if m.GetTournamentInfoFunc != nil {
		return m.GetTournamentInfoFunc(externalID)
	}
	return TournamentMetadata{ExternalID: externalID}, nil
}

func (m *MockClient) ListTeamIDs(tournamentID string) ([]string, error) {
	if m.ListTeamIDsFunc != nil {
		return m.ListTeamIDsFunc(tournamentID)
	}
	return nil, nil
}

func (m *MockClient) GetTeamPage(tournamentID, teamID string) (*TeamPage, error) {
	m.mu.Lock()
	m.GetTeamPageCalls = append(m.GetTeamPageCalls, struct{ TournamentID, TeamID string }{tournamentID, teamID})
	m.mu.Unlock()
	if m.GetTeamPageFunc != nil {
		return m.GetTeamPageFunc(tournamentID, teamID)
	}
	return &TeamPage{TeamID: teamID}, nil
}

func (m *MockClient) FetchTournament(externalID string) (*TournamentRecord, error) {
	m.mu.Lock()
	m.FetchTournamentCalls = append(m.FetchTournamentCalls, externalID)
	m.mu.Unlock()
	if m.FetchTournamentFunc != nil {
		return m.FetchTournamentFunc(externalID)
	}
	return &TournamentRecord{Tournament: TournamentMetadata{ExternalID: externalID}}, nil
}
