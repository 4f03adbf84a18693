package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"io"

	"github.com/charmbracelet/log"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/rating"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// ScrapeHandler walks the CBVA year pages and feeds every discovered
// tournament through the pipeline. With inline=true the ingest happens in
// this request; otherwise each record is published for the reconcile push
// subscription to pick up.
func (s *Server) ScrapeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting tournament scrape...")
		s.Metrics.IncScraperRuns()
		isDryRun := isDryRunFromContext(r)
		inline := r.URL.Query().Get("inline") == "true"

		currentYear := time.Now().Year()
		startYear := s.Cfg.Cbva.StartYear
		if yearStr := r.URL.Query().Get("year"); yearStr != "" {
			parsedYear, err := strconv.Atoi(yearStr)
			if err != nil || parsedYear < 1900 || parsedYear > currentYear {
				log.Warn("Invalid 'year' parameter provided", "year_param", yearStr)
				http.Error(w, "Invalid year", http.StatusBadRequest)
				return
			}
			startYear = parsedYear
			currentYear = parsedYear
		}

		// Year pages are walked newest first, down to the configured start year.
		refs, err := s.CbvaClient.ListTournaments(currentYear, startYear)
		if err != nil {
			log.Error("Error listing CBVA tournaments", "error", err)
			http.Error(w, "Failed to list tournaments", http.StatusInternalServerError)
			return
		}
		log.Info("Found tournaments on year pages", "count", len(refs))

		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil || limit < 1 {
				log.Warn("Invalid 'limit' parameter provided", "limit_param", limitStr)
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			if len(refs) > limit {
				refs = refs[:limit]
			}
		}

		var (
			mu        sync.Mutex
			wg        sync.WaitGroup
			processed int
			skipped   int
			failed    int
		)
		sem := make(chan struct{}, 4)
		for _, ref := range refs {
			wg.Add(1)
			go func(externalID string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				record, err := s.CbvaClient.FetchTournament(externalID)
				if err != nil {
					log.Error("Error fetching tournament", "tournamentID", externalID, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}

				if inline {
					if _, err := s.Pipeline.Ingest(*record, isDryRun); err != nil {
						log.Error("Error ingesting tournament", "tournamentID", externalID, "error", err)
						mu.Lock()
						failed++
						mu.Unlock()
						return
					}
				} else if !isDryRun {
					if err := s.Pipeline.Publish(*record); err != nil {
						log.Error("Error publishing tournament", "tournamentID", externalID, "error", err)
						mu.Lock()
						failed++
						mu.Unlock()
						return
					}
				} else {
					log.Info("[Dry Run] Would publish tournament", "tournamentID", externalID)
					mu.Lock()
					skipped++
					mu.Unlock()
					return
				}
				mu.Lock()
				processed++
				mu.Unlock()
			}(ref.ExternalID)
		}
		wg.Wait()

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Scrape completed.")
		log.Info("Scrape finished.", "tournaments", len(refs), "processed", processed, "skipped", skipped, "failed", failed)
	}
}

// ScrapeTournamentHandler fetches and ingests a single tournament inline.
func (s *Server) ScrapeTournamentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalID := r.URL.Query().Get("id")
		if externalID == "" {
			http.Error(w, "Missing 'id' parameter", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)

		record, err := s.CbvaClient.FetchTournament(externalID)
		if err != nil {
			log.Error("Error fetching tournament", "tournamentID", externalID, "error", err)
			http.Error(w, "Failed to fetch tournament", http.StatusInternalServerError)
			return
		}

		result, err := s.Pipeline.Ingest(*record, isDryRun)
		if err != nil {
			log.Error("Error ingesting tournament", "tournamentID", externalID, "error", err)
			http.Error(w, "Failed to ingest tournament", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// ReconcileHandler is the pubsub push endpoint for tournament-scraped events.
func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received reconcile message", "body", string(bodyBytes))
		// Define a small struct to decode the incoming JSON's `data` field
		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"` // base64-encoded message payload
			} `json:"message"`
		}

		// Parse the outer JSON to get `data`
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)
		record := cbva.TournamentRecord{}
		if err := s.pubsub.ProcessMessage(rawData, &record); err != nil {
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}
		if _, err := s.Pipeline.Ingest(record, isDryRun); err != nil {
			log.Error("Error ingesting published tournament", "tournamentID", record.Tournament.ExternalID, "error", err)
			http.Error(w, "Failed to ingest tournament", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

// RecomputeHandler replays stored sets through the rating engine. full=true
// wipes and rebuilds everything, from=YYYY-MM-DD catches up from a
// checkpoint, otherwise the catch-up covers the whole graph.
func (s *Server) RecomputeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isDryRun := isDryRunFromContext(r)
		if isDryRun {
			log.Info("[Dry Run] Would recompute ratings")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Dry run, nothing recomputed.")
			return
		}

		var (
			summary rating.Summary
			err     error
		)
		switch {
		case r.URL.Query().Get("full") == "true":
			summary, err = s.Engine.RecomputeAll()
		case r.URL.Query().Get("from") != "":
			var from time.Time
			from, err = time.Parse("2006-01-02", r.URL.Query().Get("from"))
			if err != nil {
				http.Error(w, "Invalid 'from' date, want YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			summary, err = s.Engine.RecomputeFrom(from)
		default:
			summary, err = s.Engine.RecomputeFrom(time.Time{})
		}
		if err != nil {
			log.Error("Recompute failed", "error", err)
			http.Error(w, "Recompute failed", http.StatusInternalServerError)
			return
		}

		if err := s.Notifier.SendRecomputeSummary(summary, isDryRun); err != nil {
			log.Error("Failed to send recompute notification", "error", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// RankingsHandler returns the leaderboard as JSON.
func (s *Server) RankingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 25
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 {
				http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		rankings, err := s.Store.ListPlayersByRating(limit)
		if err != nil {
			log.Error("Failed to list rankings", "error", err)
			http.Error(w, "Failed to list rankings", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rankings)
	}
}

// PlayerHistoryHandler returns one player's rating trajectory as JSON.
func (s *Server) PlayerHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalID := r.URL.Query().Get("player")
		if externalID == "" {
			http.Error(w, "Missing 'player' parameter", http.StatusBadRequest)
			return
		}

		history, err := s.Store.GetPlayerHistory(externalID)
		if err != nil {
			log.Error("Failed to fetch player history", "error", err, "player", externalID)
			http.Error(w, "Failed to fetch player history", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}

// StatsHandler reports row counts of the stored entity graph.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.Store.Counts()
		if err != nil {
			log.Error("Failed to count entities", "error", err)
			http.Error(w, "Failed to count entities", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	}
}

// NotifyRankingsHandler posts the current leaderboard to Slack.
func (s *Server) NotifyRankingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isDryRun := isDryRunFromContext(r)

		limit := 10
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err == nil && parsed > 0 {
				limit = parsed
			}
		}

		rankings, err := s.Store.ListPlayersByRating(limit)
		if err != nil {
			log.Error("Failed to list rankings", "error", err)
			http.Error(w, "Failed to list rankings", http.StatusInternalServerError)
			return
		}

		if err := s.Notifier.SendLeaderboard(rankings, isDryRun); err != nil {
			log.Error("Failed to send leaderboard", "error", err)
			http.Error(w, "Failed to send leaderboard", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Rankings sent.")
	}
}
