package main

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zulandar/storeadmin/internal/chat"
)

// stateChangedMsg signals that the controller's state changed.
type stateChangedMsg struct{}

// chatModel is the bubbletea model for the interactive chat. The draft
// lives in the controller so every view of the conversation agrees on it.
type chatModel struct {
	ctx         context.Context
	ctrl        *chat.Controller
	updates     <-chan struct{}
	unsubscribe func()
	width       int
	height      int
}

func newChatModel(ctx context.Context, ctrl *chat.Controller) chatModel {
	updates, unsubscribe := ctrl.Subscribe()
	return chatModel{
		ctx:         ctx,
		ctrl:        ctrl,
		updates:     updates,
		unsubscribe: unsubscribe,
		width:       80,
		height:      24,
	}
}

// waitForChange blocks until the controller reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func (m chatModel) Init() tea.Cmd {
	return waitForChange(m.updates)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case stateChangedMsg:
		return m, waitForChange(m.updates)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m chatModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	draft := m.ctrl.State().PendingInput

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.unsubscribe()
		return m, tea.Quit
	case tea.KeyEnter:
		m.ctrl.Submit(m.ctx, draft)
		return m, nil
	case tea.KeyCtrlU:
		m.ctrl.ClearInput()
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(draft); len(r) > 0 {
			m.ctrl.SetPendingInput(string(r[:len(r)-1]))
		}
		return m, nil
	case tea.KeySpace:
		m.ctrl.SetPendingInput(draft + " ")
		return m, nil
	case tea.KeyRunes:
		// Number keys pick a quick action while the welcome panel is shown.
		if draft == "" && m.ctrl.ShowWelcome() && len(key.Runes) == 1 {
			if action, err := chat.QuickActionAt(int(key.Runes[0] - '1')); err == nil {
				m.ctrl.ApplyQuickAction(action)
				return m, nil
			}
		}
		m.ctrl.SetPendingInput(draft + string(key.Runes))
		return m, nil
	}
	return m, nil
}

func (m chatModel) View() string {
	st := m.ctrl.State()

	header := titleStyle.Render("Store Assistant") + "  " + mutedStyle.Render("enter send · ctrl+u clear · esc quit")
	body := renderHistory(st.History)
	if st.Typing {
		body += mutedStyle.Render("assistant is typing...") + "\n"
	}

	var footer strings.Builder
	if m.ctrl.ShowWelcome() {
		footer.WriteString(renderQuickActions() + "\n")
	}
	prompt := "> "
	if st.AwaitingReply {
		prompt = mutedStyle.Render("… ")
	}
	footer.WriteString(cardStyle.Width(max(m.width-4, 10)).Render(prompt + st.PendingInput + "█"))

	// Keep the newest lines that fit between header and footer.
	avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer.String()) - 1
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if avail > 0 && len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n"), footer.String())
}
