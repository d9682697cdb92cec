package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/storeadmin/internal/digest"
)

type mockSession struct {
	calls   int
	channel string
	last    *discordgo.MessageSend
	errs    []error
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.calls++
	m.channel = channelID
	m.last = data
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func rateLimited() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
}

func TestNewNotifier_Validation(t *testing.T) {
	if _, err := NewNotifier(NotifierOpts{BotToken: "t"}); err == nil || !strings.Contains(err.Error(), "channel id is required") {
		t.Errorf("err = %v, want channel id is required", err)
	}
	if _, err := NewNotifier(NotifierOpts{ChannelID: "123"}); err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("err = %v, want bot token is required", err)
	}
	n, err := NewNotifier(NotifierOpts{BotToken: "token", ChannelID: "123"})
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if n.Name() != "discord" {
		t.Errorf("Name = %q, want discord", n.Name())
	}
}

func TestSend_Embed(t *testing.T) {
	sess := &mockSession{}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "123", Session: sess})

	d := digest.Digest{
		Title:  "Store Analytics Digest",
		Body:   "**Revenue**: $10.00",
		Color:  digest.ColorSuccess,
		Fields: []digest.Field{{Name: "Orders", Value: "3", Short: true}},
	}
	if err := n.Send(context.Background(), d); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sess.channel != "123" || len(sess.last.Embeds) != 1 {
		t.Fatalf("channel = %q embeds = %d", sess.channel, len(sess.last.Embeds))
	}
	embed := sess.last.Embeds[0]
	if embed.Title != d.Title || embed.Description != d.Body {
		t.Errorf("embed = %+v", embed)
	}
	if embed.Color != 0x36a64f {
		t.Errorf("Color = %#x, want 0x36a64f", embed.Color)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline || embed.Fields[0].Value != "3" {
		t.Errorf("fields = %+v", embed.Fields)
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	sess := &mockSession{errs: []error{rateLimited()}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "123", Session: sess, Backoff: time.Millisecond})

	if err := n.Send(context.Background(), digest.Digest{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sess.calls != 2 {
		t.Errorf("calls = %d, want 2", sess.calls)
	}
}

func TestSend_NonRateLimitError(t *testing.T) {
	sess := &mockSession{errs: []error{errors.New("missing access")}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "123", Session: sess, Backoff: time.Millisecond})

	if err := n.Send(context.Background(), digest.Digest{}); err == nil {
		t.Fatal("expected error")
	}
	if sess.calls != 1 {
		t.Errorf("calls = %d, want 1", sess.calls)
	}
}

func TestSend_ContextCancelledDuringBackoff(t *testing.T) {
	sess := &mockSession{errs: []error{rateLimited(), rateLimited()}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "123", Session: sess, Backoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Send(ctx, digest.Digest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send error = %v, want deadline exceeded", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"e53935", 0xe53935},
		{"#FF9800", 0xff9800},
		{"", 0},
		{"#zz", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
