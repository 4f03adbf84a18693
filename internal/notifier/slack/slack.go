package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/notifier"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendIngestSummary(summary reconcile.Summary, tournamentName string, dryRun bool) error {
	msg := s.formatIngestSummary(summary, tournamentName)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendRecomputeSummary(summary rating.Summary, dryRun bool) error {
	msg := s.formatRecomputeSummary(summary)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(rankings []league.PlayerRanking, dryRun bool) error {
	msg := s.formatLeaderboard(rankings)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// formatIngestSummary creates the Slack message for a reconciled tournament using Block Kit.
func (s *Notifier) formatIngestSummary(summary reconcile.Summary, tournamentName string) slack.Message {
	blocks := make([]slack.Block, 0)

	if tournamentName == "" {
		tournamentName = summary.TournamentExternalID
	}
	headerText := slack.NewTextBlockObject("plain_text", "🏐 Tournament ingested! 🏐", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("%s\nPlayers: %d | Teams: %d | Matches: %d | New sets: %d",
		tournamentName,
		summary.PlayersResolved,
		summary.TeamsResolved,
		summary.MatchesUpserted,
		summary.SetsCreated,
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if len(summary.Warnings) > 0 {
		lines := make([]string, 0, len(summary.Warnings))
		for _, w := range summary.Warnings {
			lines = append(lines, fmt.Sprintf("• [%s] %s", w.Kind, w.Message))
		}
		warningsText := "Warnings:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", warningsText, true, false), nil, nil))
	}

	contextText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("batch %s", summary.BatchID), true, false)
	blocks = append(blocks, slack.NewContextBlock("", contextText))

	return slack.NewBlockMessage(blocks...)
}

// formatRecomputeSummary creates the Slack message for a finished rating run.
func (s *Notifier) formatRecomputeSummary(summary rating.Summary) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "📈 Ratings updated! 📈", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Sets rated: %d | Already rated: %d | Took: %.2fs",
		summary.SetsApplied, summary.SetsSkipped, summary.Duration)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the top rated players.
func (s *Notifier) formatLeaderboard(rankings []league.PlayerRanking) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Player Rankings 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(rankings) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No rated players yet. Ingest a tournament first!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, ranking := range rankings {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s %s\n> Rating: %.1f", rank, medal, ranking.ExternalID, ranking.Rating)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
