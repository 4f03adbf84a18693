package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/database"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "sideout.db",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
		"MIGRATIONS_DIR":    "./migrations",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

// seedRecord fabricates one tournament's scrape output: teamsPerEvent teams of
// two players drawn from a shared pool, full round-robin pool play with random
// rally-scored sets.
func seedRecord(index int, date time.Time) cbva.TournamentRecord {
	const teamsPerEvent = 8

	record := cbva.TournamentRecord{
		Tournament: cbva.TournamentMetadata{
			ExternalID: fmt.Sprintf("seed-open-%d", index),
			Name:       fmt.Sprintf("Seeded Open #%d", index),
			URL:        fmt.Sprintf("https://cbva.com/t/seed-open-%d", index),
			Date:       &date,
		},
	}

	for i := 0; i < teamsPerEvent; i++ {
		record.Teams = append(record.Teams, cbva.TeamRecord{
			ExternalID:        fmt.Sprintf("seed-team-%d-%d", index, i),
			Player1ExternalID: fmt.Sprintf("seed-player-%d", rand.Intn(40)*2),
			Player2ExternalID: fmt.Sprintf("seed-player-%d", rand.Intn(40)*2+1),
		})
	}

	for i := 0; i < teamsPerEvent; i++ {
		for j := i + 1; j < teamsPerEvent; j++ {
			numSets := 2 + rand.Intn(2)
			var sets []cbva.SetScore
			for s := 0; s < numSets; s++ {
				loser := rand.Intn(20)
				if rand.Intn(2) == 0 {
					sets = append(sets, cbva.SetScore{Team1: 21, Team2: loser})
				} else {
					sets = append(sets, cbva.SetScore{Team1: loser, Team2: 21})
				}
			}
			record.Matches = append(record.Matches, cbva.MatchRecord{
				Team1ExternalID: record.Teams[i].ExternalID,
				Team2ExternalID: record.Teams[j].ExternalID,
				Type:            cbva.MatchTypePoolPlay,
				Label:           fmt.Sprintf("Match %d", len(record.Matches)+1),
				Sets:            sets,
			})
		}
	}
	return record
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"], cfg["MIGRATIONS_DIR"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := league.New(db)
	metricsSvc := metrics.NewService()
	reconciler := reconcile.New(store, metricsSvc)
	engine := rating.New(store, metricsSvc)

	const numTournaments = 50

	log.Info("Seeding tournaments through the ingestion pipeline...", "total", numTournaments)
	startTime := time.Now()

	for i := 1; i <= numTournaments; i++ {
		date := time.Now().AddDate(0, 0, -rand.Intn(365))
		record := seedRecord(i, date)

		summary, err := reconciler.Reconcile(record)
		if err != nil {
			log.Fatalf("Failed to reconcile seeded tournament %d: %s", i, err)
		}
		if _, err := engine.ApplyTournament(summary.TournamentID); err != nil {
			log.Fatalf("Failed to rate seeded tournament %d: %s", i, err)
		}
		log.Info("Seeded tournament", "completed", i, "total", numTournaments, "matches", summary.MatchesUpserted, "warnings", len(summary.Warnings))
	}

	counts, err := store.Counts()
	if err != nil {
		log.Fatalf("Failed to read store counts: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully seeded tournaments.",
		"duration", duration,
		"players", counts.Players,
		"matches", counts.Matches,
		"sets", counts.Sets,
		"rating_events", counts.RatingEvents,
	)
}
