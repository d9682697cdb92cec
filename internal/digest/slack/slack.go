// Package slack delivers analytics digests to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/storeadmin/internal/digest"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier implements digest.Notifier for Slack.
type Notifier struct {
	client    slackClient
	channelID string
}

// NotifierOpts holds parameters for creating a Notifier.
type NotifierOpts struct {
	BotToken  string
	ChannelID string
	Client    slackClient // for testing; if nil, a real client is created
}

// NewNotifier creates a Slack notifier.
func NewNotifier(opts NotifierOpts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Notifier{client: client, channelID: opts.ChannelID}, nil
}

// Name implements digest.Notifier.
func (n *Notifier) Name() string { return "slack" }

// Send posts d as a message with a single attachment.
func (n *Notifier) Send(ctx context.Context, d digest.Digest) error {
	options := buildMessageOptions(d)
	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := n.client.PostMessageContext(ctx, n.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// buildMessageOptions converts a digest to Slack message options. The
// title doubles as notification text.
func buildMessageOptions(d digest.Digest) []slackapi.MsgOption {
	att := slackapi.Attachment{
		Title:    d.Title,
		Text:     d.Body,
		Color:    d.Color,
		Fallback: d.Title,
	}
	for _, f := range d.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return []slackapi.MsgOption{
		slackapi.MsgOptionText(d.Title, false),
		slackapi.MsgOptionAttachments(att),
	}
}

// retryOnRateLimit calls fn and retries on Slack rate limit errors,
// honouring Retry-After when present.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxRetries {
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
