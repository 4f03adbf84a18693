package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	scrapeYear    string
	recomputeFull bool
	recomputeFrom string
	rankingsLimit string
	historyPlayer string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeYear, "year", "", "Restrict the scrape to a single season year")
	recomputeCmd.Flags().BoolVar(&recomputeFull, "full", false, "Reset all ratings and replay the whole match graph")
	recomputeCmd.Flags().StringVar(&recomputeFrom, "from", "", "Catch up unrated sets from this date (YYYY-MM-DD)")
	rankingsCmd.Flags().StringVar(&rankingsLimit, "limit", "", "Maximum number of players to return")
	historyCmd.Flags().StringVar(&historyPlayer, "player", "", "External ID of the player")
	historyCmd.MarkFlagRequired("player")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health", nil)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the CBVA tournament listing and publish results",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if scrapeYear != "" {
			params.Set("year", scrapeYear)
		}
		return performGetRequest("/scrape", params)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [tournament-id]",
	Short: "Scrape and ingest a single tournament inline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		params.Set("id", args[0])
		return performGetRequest("/scrape/tournament", params)
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute player ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if recomputeFull {
			params.Set("full", "true")
		}
		if recomputeFrom != "" {
			params.Set("from", recomputeFrom)
		}
		return performGetRequest("/recompute", params)
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "List the top rated players",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if rankingsLimit != "" {
			params.Set("limit", rankingsLimit)
		}
		return performGetRequest("/rankings", params)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the rating event history for a player",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		params.Set("player", historyPlayer)
		return performGetRequest("/history", params)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entity counts for the league store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stats", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics", nil)
	},
}

func performGetRequest(endpoint string, params url.Values) error {
	url := host + endpoint
	if len(params) > 0 {
		url += "?" + params.Encode()
	}
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
