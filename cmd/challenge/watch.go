package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/protocol"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Follow the group discussion of a session as it happens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			feed, err := newClient(cmd).Subscribe(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for msg := range feed {
				switch msg.Type {
				case protocol.FeedEntry:
					if msg.Entry != nil {
						fmt.Fprintln(out, formatEntry(*msg.Entry))
					}
				case protocol.FeedClosed:
					fmt.Fprintln(out, "Session closed.")
				}
			}
			return nil
		},
	}
}

func formatEntry(e domain.DiscussionEntry) string {
	ts := e.Timestamp.Format("15:04:05")
	if e.IsDecision() {
		return fmt.Sprintf("%s [%s] Decision: %s", ts, e.Topic, domain.OptionKey(e.Decision))
	}
	return fmt.Sprintf("%s [%s] %s (%s): %s", ts, e.Topic, e.SpeakerName, domain.OptionKey(e.Preference), e.Statement)
}
