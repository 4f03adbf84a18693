package cbva

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// APIClient scrapes cbva.com. It implements the CbvaClient interface.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
}

// NewClient creates a new CBVA scrape client.
func NewClient(baseURL string) CbvaClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    baseURL,
	}
}

// Ensure APIClient implements the CbvaClient interface.
var _ CbvaClient = (*APIClient)(nil)

func (c *APIClient) get(url string) (*http.Response, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("received non-OK HTTP status %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}

// ListTournaments walks the year index pages from startYear down to endYear
// and returns every tournament discovered.
func (c *APIClient) ListTournaments(startYear, endYear int) ([]TournamentRef, error) {
	if startYear == 0 {
		startYear = time.Now().Year()
	}

	seen := make(map[string]struct{})
	var all []TournamentRef
	for year := startYear; year >= endYear; year-- {
		url := fmt.Sprintf("%s/t?y=%d", c.BaseURL, year)
		resp, err := c.get(url)
		if err != nil {
			log.Error("Failed to fetch year page", "year", year, "error", err)
			continue
		}
		refs, err := parseYearPage(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Error("Failed to parse year page", "year", year, "error", err)
			continue
		}
		log.Debug("Scraped year page", "year", year, "tournaments", len(refs))
		for _, ref := range refs {
			if _, ok := seen[ref.ExternalID]; ok {
				continue
			}
			seen[ref.ExternalID] = struct{}{}
			all = append(all, ref)
		}
	}
	log.Info("Listed tournaments", "count", len(all))
	return all, nil
}

// GetTournamentInfo fetches the /info page for a tournament. A missing date
// or name is not an error; the metadata fields stay empty.
func (c *APIClient) GetTournamentInfo(externalID string) (TournamentMetadata, error) {
	url := fmt.Sprintf("%s/t/%s", c.BaseURL, externalID)
	resp, err := c.get(url + "/info")
	if err != nil {
		return TournamentMetadata{ExternalID: externalID, URL: url}, err
	}
	defer resp.Body.Close()
	return parseTournamentInfo(resp.Body, externalID, url)
}

// ListTeamIDs fetches a tournament's teams page and returns the team codes.
func (c *APIClient) ListTeamIDs(tournamentID string) ([]string, error) {
	resp, err := c.get(fmt.Sprintf("%s/t/%s/teams", c.BaseURL, tournamentID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseTeamIDs(resp.Body, tournamentID)
}

// GetTeamPage fetches and parses one team page.
func (c *APIClient) GetTeamPage(tournamentID, teamID string) (*TeamPage, error) {
	resp, err := c.get(fmt.Sprintf("%s/t/%s/teams/%s", c.BaseURL, tournamentID, teamID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseTeamPage(resp.Body, teamID)
}

// FetchTournament assembles one tournament's full scrape output. Team pages
// are fetched concurrently; each match appears on both teams' pages, so
// matches are de-duplicated by their unordered team pair (first sighting
// wins, the reconciler normalizes orientation anyway).
func (c *APIClient) FetchTournament(externalID string) (*TournamentRecord, error) {
	meta, err := c.GetTournamentInfo(externalID)
	if err != nil {
		log.Warn("Failed to fetch tournament info, continuing without date", "tournament", externalID, "error", err)
	}

	teamIDs, err := c.ListTeamIDs(externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %s: %w", externalID, err)
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		pages []*TeamPage
	)
	for _, teamID := range teamIDs {
		wg.Add(1)
		go func(teamID string) {
			defer wg.Done()
			page, err := c.GetTeamPage(externalID, teamID)
			if err != nil {
				log.Error("Failed to fetch team page", "tournament", externalID, "team", teamID, "error", err)
				return
			}
			if len(page.PlayerIDs) < 2 {
				log.Warn("Skipping team page with incomplete player data", "tournament", externalID, "team", teamID)
				return
			}
			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
		}(teamID)
	}
	wg.Wait()

	// Concurrent fetches land in arbitrary order; restore the listing order
	// so repeated scrapes produce the same record.
	order := make(map[string]int, len(teamIDs))
	for i, id := range teamIDs {
		order[id] = i
	}
	sort.Slice(pages, func(i, j int) bool { return order[pages[i].TeamID] < order[pages[j].TeamID] })

	record := &TournamentRecord{Tournament: meta}
	seenMatches := make(map[string]struct{})
	for _, page := range pages {
		record.Teams = append(record.Teams, TeamRecord{
			ExternalID:        page.TeamID,
			Player1ExternalID: page.PlayerIDs[0],
			Player2ExternalID: page.PlayerIDs[1],
		})
		for _, game := range page.Games {
			key := pairKey(page.TeamID, game.OpponentTeamID)
			if _, ok := seenMatches[key]; ok {
				continue
			}
			seenMatches[key] = struct{}{}
			record.Matches = append(record.Matches, MatchRecord{
				Team1ExternalID: page.TeamID,
				Team2ExternalID: game.OpponentTeamID,
				Type:            game.Type,
				Label:           game.Label,
				Sets:            game.Sets,
			})
		}
	}

	log.Info("Fetched tournament", "tournament", externalID, "teams", len(record.Teams), "matches", len(record.Matches))
	return record, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
