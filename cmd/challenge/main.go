package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/challenge-game/internal/client"
)

func main() {
	root, closeLog := newRootCmd()
	err := root.Execute()
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned func closes the debug log
// once the command has finished.
func newRootCmd() (*cobra.Command, func() error) {
	closeLog := func() error { return nil }

	root := &cobra.Command{
		Use:   "challenge",
		Short: "Terminal controller for the CHALLENGE refugee education policy game",
		Long: "Plays the CHALLENGE game against a running game server: choose a policy package, " +
			"argue it out with four simulated colleagues, then reflect on the result.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			closer, err := setupLogging(debug, "challenge-debug.log")
			if err != nil {
				return err
			}
			closeLog = closer
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().String("server", envOr("CHALLENGE_SERVER", "http://localhost:8080"), "Game server address (CHALLENGE_SERVER)")
	root.PersistentFlags().Duration("timeout", client.DefaultTimeout, "Timeout for a single API call")
	root.PersistentFlags().Bool("debug", false, "Write debug logs to challenge-debug.log")

	root.AddCommand(newPlayCmd())
	root.AddCommand(newAreasCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newWatchCmd())

	return root, func() error { return closeLog() }
}

// newClient builds an API client from the persistent flags.
func newClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Root().PersistentFlags().GetString("server")
	timeout, _ := cmd.Root().PersistentFlags().GetDuration("timeout")
	return client.New(server, timeout)
}

// setupLogging keeps logs off the terminal, which belongs to the game.
// The returned func closes the log file, if one was opened.
func setupLogging(debug bool, path string) (func() error, error) {
	if !debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	slog.Info("Debug logging enabled", "started", time.Now().Format(time.RFC3339))
	return func() error {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := f.Close(); err != nil {
			return fmt.Errorf("close debug log: %w", err)
		}
		return nil
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
