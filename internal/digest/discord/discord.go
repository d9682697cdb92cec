// Package discord delivers analytics digests to a Discord channel.
package discord

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/storeadmin/internal/digest"
)

const (
	maxRetries  = 3
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier implements digest.Notifier for Discord. Delivery uses the REST
// API only; no gateway connection is opened.
type Notifier struct {
	sess        session
	channelID   string
	baseBackoff time.Duration
}

// NotifierOpts holds parameters for creating a Notifier.
type NotifierOpts struct {
	BotToken  string
	ChannelID string
	Session   session       // for testing; if nil, a real session is created
	Backoff   time.Duration // initial rate-limit backoff; defaults to 1s
}

// NewNotifier creates a Discord notifier.
func NewNotifier(opts NotifierOpts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = dg
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = baseBackoff
	}
	return &Notifier{sess: sess, channelID: opts.ChannelID, baseBackoff: backoff}, nil
}

// Name implements digest.Notifier.
func (n *Notifier) Name() string { return "discord" }

// Send posts d as an embed.
func (n *Notifier) Send(ctx context.Context, d digest.Digest) error {
	data := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{buildEmbed(d)}}
	err := n.retryOnRateLimit(ctx, func() error {
		_, sendErr := n.sess.ChannelMessageSendComplex(n.channelID, data, discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}

// buildEmbed converts a digest to a Discord embed.
func buildEmbed(d digest.Digest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       d.Title,
		Description: d.Body,
		Color:       parseHexColor(d.Color),
	}
	for _, f := range d.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// parseHexColor converts "#36a64f" to its integer value. Invalid input yields 0.
func parseHexColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// retryOnRateLimit calls fn and retries with exponential backoff on
// Discord 429 responses. It respects context cancellation.
func (n *Notifier) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil ||
			restErr.Response.StatusCode != http.StatusTooManyRequests || attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * n.baseBackoff
		if wait > maxBackoff {
			wait = maxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
