package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ashureev/challenge-game/internal/tui"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE:  runPlay,
	}
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := tea.NewProgram(tui.NewModel(ctx, newClient(cmd)), tea.WithAltScreen(), tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("run game: %w", err)
	}

	// An unfinished game stays on the server until its TTL runs out.
	if m, ok := result.(tui.Model); ok {
		if sid := m.State().SessionID; sid != "" {
			fmt.Printf("Session %s left open. Inspect it with: challenge state %s\n", sid, sid)
		}
	}
	return nil
}
