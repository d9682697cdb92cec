package chat

import (
	"fmt"

	"github.com/zulandar/storeadmin/internal/models"
)

// QuickActions are offered on the welcome panel. Choosing one fills the
// draft; it is never sent automatically.
var QuickActions = []models.QuickAction{
	{Icon: "💡", Text: "Get suggestions"},
	{Icon: "📊", Text: "Show analytics"},
	{Icon: "❓", Text: "Help & Support"},
	{Icon: "⚙️", Text: "Settings"},
}

// QuickActionAt returns the quick action at index i.
func QuickActionAt(i int) (models.QuickAction, error) {
	if i < 0 || i >= len(QuickActions) {
		return models.QuickAction{}, fmt.Errorf("chat: quick action %d out of range [0,%d)", i, len(QuickActions))
	}
	return QuickActions[i], nil
}

// ShowTimestamp reports whether history[i] should display its timestamp:
// only the first message of a run from the same sender does.
func ShowTimestamp(history []models.Message, i int) bool {
	if i <= 0 {
		return true
	}
	return history[i-1].Sender != history[i].Sender
}

// VisibleTimestamps applies ShowTimestamp to every index of history.
func VisibleTimestamps(history []models.Message) []bool {
	out := make([]bool, len(history))
	for i := range history {
		out[i] = ShowTimestamp(history, i)
	}
	return out
}
