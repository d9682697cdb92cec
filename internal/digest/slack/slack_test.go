package slack

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/storeadmin/internal/digest"
)

type mockClient struct {
	calls    int
	channel  string
	errs     []error
	optCount int
}

func (m *mockClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	m.channel = channelID
	m.optCount = len(options)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", "", err
	}
	return channelID, "1234.5678", nil
}

func TestNewNotifier_Validation(t *testing.T) {
	if _, err := NewNotifier(NotifierOpts{BotToken: "xoxb"}); err == nil || !strings.Contains(err.Error(), "channel id is required") {
		t.Errorf("err = %v, want channel id is required", err)
	}
	if _, err := NewNotifier(NotifierOpts{ChannelID: "C1"}); err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("err = %v, want bot token is required", err)
	}
	n, err := NewNotifier(NotifierOpts{BotToken: "xoxb-test", ChannelID: "C1"})
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if n.Name() != "slack" {
		t.Errorf("Name = %q, want slack", n.Name())
	}
}

func TestSend(t *testing.T) {
	client := &mockClient{}
	n, err := NewNotifier(NotifierOpts{ChannelID: "C1", Client: client})
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if err := n.Send(context.Background(), digest.Digest{Title: "Store Analytics Digest"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.calls != 1 || client.channel != "C1" {
		t.Errorf("calls = %d channel = %q", client.calls, client.channel)
	}
	if client.optCount != 2 {
		t.Errorf("options = %d, want text and attachment", client.optCount)
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	client := &mockClient{errs: []error{&slackapi.RateLimitedError{RetryAfter: time.Millisecond}}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "C1", Client: client})

	if err := n.Send(context.Background(), digest.Digest{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("calls = %d, want 2", client.calls)
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	client := &mockClient{errs: []error{errors.New("channel_not_found")}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "C1", Client: client})

	err := n.Send(context.Background(), digest.Digest{})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("Send error = %v", err)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestSend_RateLimitExhausted(t *testing.T) {
	rle := &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
	client := &mockClient{errs: []error{rle, rle, rle, rle, rle}}
	n, _ := NewNotifier(NotifierOpts{ChannelID: "C1", Client: client})

	if err := n.Send(context.Background(), digest.Digest{}); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if client.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", client.calls, maxRetries+1)
	}
}
