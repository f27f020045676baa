package exporter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

const maxSlackRetries = 3

// slackClient abstracts the one Slack API call the exporter makes.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackExporter posts summaries to a channel with a bot token.
type SlackExporter struct {
	client    slackClient
	channelID string
}

func NewSlackExporter(botToken, channelID string) *SlackExporter {
	return &SlackExporter{client: slackapi.New(botToken), channelID: channelID}
}

func newSlackExporterWithClient(client slackClient, channelID string) *SlackExporter {
	return &SlackExporter{client: client, channelID: channelID}
}

func (e *SlackExporter) Export(ctx context.Context, _ Destination, summary Summary) error {
	if e.channelID == "" {
		return fmt.Errorf("slack: no channel configured")
	}

	options := []slackapi.MsgOption{
		slackapi.MsgOptionText(fmt.Sprintf("Dashboard %s summary", summary.DashboardID), false),
		slackapi.MsgOptionBlocks(
			slackapi.NewSectionBlock(slackapi.NewTextBlockObject(slackapi.MarkdownType, summary.Text, false, false), nil, nil),
			slackapi.NewContextBlock("", slackapi.NewTextBlockObject(slackapi.PlainTextType, summary.Fingerprint, false, false)),
		),
	}

	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := e.client.PostMessageContext(ctx, e.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxSlackRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
