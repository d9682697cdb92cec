package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/zulandar/storeadmin/internal/chat"
	"golang.org/x/term"
)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		message    string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the store assistant",
		Long: `Opens an interactive chat with the store assistant. With --message, or
when stdin is not a terminal, each line is sent in turn and the reply is
printed, followed by the generated SQL when there is one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, message)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message, print the reply and exit")
	return cmd
}

func runChat(cmd *cobra.Command, configPath, message string) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.newController()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if message != "" {
		return runChatLines(ctx, ctrl, strings.NewReader(message), out)
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return runChatLines(ctx, ctrl, in, out)
	}
	return runChatTUI(ctx, ctrl, in, out)
}

// runChatLines submits each non-blank line of in and prints the reply.
func runChatLines(ctx context.Context, ctrl *chat.Controller, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		done := ctrl.Submit(ctx, line)
		if done == nil {
			continue
		}
		select {
		case reply := <-done:
			fmt.Fprintln(out, reply.Text)
			if reply.HasSQL() {
				fmt.Fprintf(out, "SQL: %s\n", reply.SQL)
			}
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func runChatTUI(ctx context.Context, ctrl *chat.Controller, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newChatModel(ctx, ctrl),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat ui: %w", err)
	}
	return nil
}
