package cbva

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	embeddedJSONRe = regexp.MustCompile(`let val = "(.+?)";`)
	rustUnicodeRe  = regexp.MustCompile(`\\u\{([0-9a-fA-F]+)\}`)
	playerHrefRe   = regexp.MustCompile(`^(?:https://cbva\.com)?/p/([^/]+)$`)
	tournamentRe   = regexp.MustCompile(`/t/([^/?]+)$`)
)

// embeddedMatch mirrors one match object inside the page's embedded JSON blob.
type embeddedMatch struct {
	TeamAURL    string `json:"team_a_url"`
	TeamBURL    string `json:"team_b_url"`
	MatchNumber int    `json:"match_number"`
	Games       []struct {
		Scores []int `json:"scores"`
	} `json:"games"`
}

type embeddedData struct {
	Playoffs []embeddedMatch `json:"playoffs"`
	Pools    []struct {
		Series []embeddedMatch `json:"series"`
	} `json:"pools"`
}

// extractEmbeddedJSON pulls the client-side rendering payload out of a team
// page. The site embeds it in a script tag as `let val = "...";` with
// Rust-style `\u{XX}` escapes that must be widened to `\uXXXX` before the
// string can be unescaped.
func extractEmbeddedJSON(html string) (*embeddedData, error) {
	m := embeddedJSONRe.FindStringSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("no embedded tournament data found")
	}

	escaped := rustUnicodeRe.ReplaceAllStringFunc(m[1], func(s string) string {
		hex := rustUnicodeRe.FindStringSubmatch(s)[1]
		for len(hex) < 4 {
			hex = "0" + hex
		}
		return `\u` + hex
	})

	unquoted, err := strconv.Unquote(`"` + escaped + `"`)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape embedded data: %w", err)
	}

	// The payload is wrapped in {"Ok": {...}}.
	var wrapper struct {
		Ok *embeddedData `json:"Ok"`
	}
	if err := json.Unmarshal([]byte(unquoted), &wrapper); err == nil && wrapper.Ok != nil {
		return wrapper.Ok, nil
	}

	var data embeddedData
	if err := json.Unmarshal([]byte(unquoted), &data); err != nil {
		return nil, fmt.Errorf("failed to decode embedded data: %w", err)
	}
	return &data, nil
}

// extractGames collects every match involving teamID from the embedded data,
// with scores oriented to the team whose page we are on.
func extractGames(data *embeddedData, teamID string) []TeamGame {
	var games []TeamGame

	appendGame := func(m embeddedMatch, matchType MatchType, label string) {
		var ours bool
		var opponent string
		switch teamID {
		case m.TeamAURL:
			ours, opponent = true, m.TeamBURL
		case m.TeamBURL:
			ours, opponent = false, m.TeamAURL
		default:
			return
		}
		if opponent == "" {
			return
		}

		var sets []SetScore
		for _, g := range m.Games {
			if len(g.Scores) != 2 {
				continue
			}
			if ours {
				sets = append(sets, SetScore{Team1: g.Scores[0], Team2: g.Scores[1]})
			} else {
				sets = append(sets, SetScore{Team1: g.Scores[1], Team2: g.Scores[0]})
			}
		}
		if len(sets) == 0 {
			return
		}
		games = append(games, TeamGame{
			OpponentTeamID: opponent,
			Sets:           sets,
			Type:           matchType,
			Label:          label,
		})
	}

	for _, m := range data.Playoffs {
		label := ""
		if m.MatchNumber > 0 {
			label = fmt.Sprintf("Match %d", m.MatchNumber)
		}
		appendGame(m, MatchTypePlayoff, label)
	}
	for _, pool := range data.Pools {
		for i, m := range pool.Series {
			appendGame(m, MatchTypePoolPlay, fmt.Sprintf("Match %d", i+1))
		}
	}
	return games
}

// parseTeamPage parses a team page: the first two player profile links plus
// the games from the embedded JSON.
func parseTeamPage(body io.Reader, teamID string) (*TeamPage, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read team page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse team page HTML: %w", err)
	}

	page := &TeamPage{TeamID: teamID}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := playerHrefRe.FindStringSubmatch(href); m != nil {
			page.PlayerIDs = append(page.PlayerIDs, m[1])
		}
		return len(page.PlayerIDs) < 2
	})

	data, err := extractEmbeddedJSON(string(raw))
	if err == nil {
		page.Games = extractGames(data, teamID)
	}
	return page, nil
}

// parseTournamentInfo parses the /info page's date and name form inputs.
// Either may be absent.
func parseTournamentInfo(body io.Reader, externalID, url string) (TournamentMetadata, error) {
	meta := TournamentMetadata{ExternalID: externalID, URL: url}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return meta, fmt.Errorf("failed to parse info page HTML: %w", err)
	}

	if v, ok := doc.Find(`input[type="date"]`).First().Attr("value"); ok && v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			meta.Date = &d
		}
	}
	if v, ok := doc.Find(`input[type="text"]`).First().Attr("value"); ok && v != "" {
		meta.Name = v
	}
	return meta, nil
}

// parseYearPage collects tournament links from a year index page, preserving
// order and dropping duplicates and year-selector links.
func parseYearPage(body io.Reader) ([]TournamentRef, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse year page HTML: %w", err)
	}

	seen := make(map[string]struct{})
	var refs []TournamentRef
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(href, "?") {
			return
		}
		m := tournamentRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if _, ok := seen[m[1]]; ok {
			return
		}
		seen[m[1]] = struct{}{}
		refs = append(refs, TournamentRef{ExternalID: m[1], URL: "https://cbva.com/t/" + m[1]})
	})
	return refs, nil
}

// parseTeamIDs collects the team codes linked from a tournament's teams page.
func parseTeamIDs(body io.Reader, tournamentID string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse teams page HTML: %w", err)
	}

	prefix := "/t/" + tournamentID + "/teams/"
	seen := make(map[string]struct{})
	var ids []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimPrefix(href, "https://cbva.com")
		if !strings.HasPrefix(href, prefix) {
			return
		}
		id := strings.TrimPrefix(href, prefix)
		// Pool standings pages link through the teams path, skip them.
		if id == "" || strings.Contains(id, "/") || strings.HasPrefix(id, "..") {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids, nil
}
