package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/storeadmin/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// FallbackText replaces the assistant's reply whenever an exchange fails.
const FallbackText = "Sorry, there was an error connecting to the server."

// greetings open every new conversation when greeting is enabled.
var greetings = []string{
	"👋 Hello! I'm your AI assistant. I'm here to help you with any questions or tasks you might have.",
	"Feel free to ask me anything - from general information to specific assistance. How can I help you today?",
}

// Controller owns a ConversationState and mediates every exchange with the
// assistant. At most one request is outstanding; Submit refuses new input
// until the pending reply (or fallback) has been appended.
type Controller struct {
	assistant    Assistant
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	replyTimeout time.Duration

	requests  metric.Int64Counter
	fallbacks metric.Int64Counter

	mu       sync.Mutex
	history  []models.Message
	pending  string
	awaiting bool
	typing   bool
	lastID   int64
	seeded   int
	subs     map[int]chan struct{}
	nextSub  int
}

// ControllerOpts holds parameters for creating a Controller.
type ControllerOpts struct {
	Assistant    Assistant
	Logger       *slog.Logger     // defaults to slog.Default()
	Tracer       trace.Tracer     // defaults to the global tracer provider
	Meter        metric.Meter     // defaults to the global meter provider
	Clock        func() time.Time // defaults to time.Now
	Greeting     bool             // seed the conversation with the greeting messages
	ReplyTimeout time.Duration    // zero waits indefinitely
}

// NewController creates a Controller.
func NewController(opts ControllerOpts) (*Controller, error) {
	if opts.Assistant == nil {
		return nil, fmt.Errorf("chat: assistant is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("storeadmin/chat")
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter("storeadmin/chat")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	requests, err := meter.Int64Counter("storeadmin.chat.requests",
		metric.WithDescription("Chat requests sent to the assistant"))
	if err != nil {
		return nil, fmt.Errorf("chat: requests counter: %w", err)
	}
	fallbacks, err := meter.Int64Counter("storeadmin.chat.fallbacks",
		metric.WithDescription("Chat exchanges answered with the fallback message"))
	if err != nil {
		return nil, fmt.Errorf("chat: fallbacks counter: %w", err)
	}

	c := &Controller{
		assistant:    opts.Assistant,
		logger:       logger,
		tracer:       tracer,
		now:          clock,
		replyTimeout: opts.ReplyTimeout,
		requests:     requests,
		fallbacks:    fallbacks,
		subs:         make(map[int]chan struct{}),
	}
	if opts.Greeting {
		for _, text := range greetings {
			c.history = append(c.history, c.newMessage(models.SenderBot, text, ""))
		}
		c.seeded = len(greetings)
	}
	return c, nil
}

// Submit sends text to the assistant. It is a no-op returning nil when text
// is blank or a reply is still pending. Otherwise the user message is
// appended immediately, and the returned channel delivers the bot message
// (reply or fallback) once it has been appended, then closes.
func (c *Controller) Submit(ctx context.Context, text string) <-chan models.Message {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.awaiting {
		c.mu.Unlock()
		return nil
	}
	userMsg := c.newMessage(models.SenderUser, text, "")
	c.history = append(c.history, userMsg)
	c.pending = ""
	c.awaiting = true
	c.typing = true
	c.mu.Unlock()
	c.notify()

	done := make(chan models.Message, 1)
	go c.exchange(ctx, userMsg, done)
	return done
}

// exchange performs one request/response round trip and appends exactly
// one bot message.
func (c *Controller) exchange(ctx context.Context, userMsg models.Message, done chan<- models.Message) {
	defer close(done)

	if c.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.replyTimeout)
		defer cancel()
	}
	ctx, span := c.tracer.Start(ctx, "chat.ask",
		trace.WithAttributes(attribute.Int64("chat.message_id", userMsg.ID)))
	defer span.End()
	c.requests.Add(ctx, 1)

	started := time.Now()
	reply, err := c.assistant.Ask(ctx, userMsg.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assistant exchange failed")
		c.fallbacks.Add(ctx, 1)
		c.logger.Warn("chat: assistant exchange failed, using fallback",
			"message_id", userMsg.ID, "error", err, "elapsed", time.Since(started))
		reply = Reply{Text: FallbackText}
	} else {
		c.logger.Debug("chat: reply received",
			"message_id", userMsg.ID, "has_sql", reply.SQL != "", "elapsed", time.Since(started))
	}

	c.mu.Lock()
	botMsg := c.newMessage(models.SenderBot, reply.Text, reply.SQL)
	c.history = append(c.history, botMsg)
	c.typing = false
	c.awaiting = false
	c.mu.Unlock()
	c.notify()

	done <- botMsg
}

// SetPendingInput replaces the draft text.
func (c *Controller) SetPendingInput(text string) {
	c.mu.Lock()
	c.pending = text
	c.mu.Unlock()
	c.notify()
}

// ClearInput empties the draft.
func (c *Controller) ClearInput() {
	c.SetPendingInput("")
}

// ApplyQuickAction puts the action's canned text into the draft without sending.
func (c *Controller) ApplyQuickAction(action models.QuickAction) {
	c.SetPendingInput(action.Text)
}

// State returns a copy of the current conversation state.
func (c *Controller) State() models.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]models.Message, len(c.history))
	copy(history, c.history)
	return models.ConversationState{
		History:       history,
		PendingInput:  c.pending,
		AwaitingReply: c.awaiting,
		Typing:        c.typing,
	}
}

// ShowWelcome reports whether the conversation holds only its opening
// messages, which is when quick actions are offered.
func (c *Controller) ShowWelcome() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history) == c.seeded
}

// Subscribe returns a channel that receives a value after each state change.
// Notifications coalesce; a slow reader sees at least the latest change.
// The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// newMessage builds a message with the next ID. Caller must hold c.mu.
func (c *Controller) newMessage(sender models.Sender, text, sql string) models.Message {
	now := c.now()
	id := now.UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return models.Message{
		ID:        id,
		Text:      text,
		SQL:       sql,
		Sender:    sender,
		Timestamp: now.Format(models.TimestampLayout),
		CreatedAt: now,
	}
}
