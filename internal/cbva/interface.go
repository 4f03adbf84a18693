package cbva

// CbvaClient defines the scraping operations the rest of the application
// depends on. This decouples the pipeline from the live site so it can be
// mocked in tests.
type CbvaClient interface {
	ListTournaments(startYear, endYear int) ([]TournamentRef, error)
	GetTournamentInfo(externalID string) (TournamentMetadata, error)
	ListTeamIDs(tournamentID string) ([]string, error)
	GetTeamPage(tournamentID, teamID string) (*TeamPage, error)
	FetchTournament(externalID string) (*TournamentRecord, error)
}
