package models

import "time"

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TimestampLayout is the display format for message timestamps (e.g. "10:30 AM").
const TimestampLayout = "03:04 PM"

// Message is a single entry in a conversation. Messages are immutable once
// appended to a history.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	SQL       string    `json:"sql,omitempty"`
	Sender    Sender    `json:"sender"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// IsBot reports whether the message was produced by the assistant side,
// including fallback messages.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}

// HasSQL reports whether the message carries an auxiliary SQL query.
func (m Message) HasSQL() bool {
	return m.Sender == SenderBot && m.SQL != ""
}

// ConversationState is a read-only snapshot of a conversation.
type ConversationState struct {
	History       []Message `json:"history"`
	PendingInput  string    `json:"pending_input"`
	AwaitingReply bool      `json:"awaiting_reply"`
	Typing        bool      `json:"typing"`
}

// QuickAction is a canned prompt offered before the user has said anything.
type QuickAction struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}
