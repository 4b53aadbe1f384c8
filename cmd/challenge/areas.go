package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/challenge-game/internal/domain"
)

func newAreasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "Print the policy areas and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := newClient(cmd).PolicyAreas(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch policy areas: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, area := range resp.PolicyAreas {
				fmt.Fprintln(out, area.Name)
				for n := domain.MinOption; n <= domain.MaxOption; n++ {
					fmt.Fprintf(out, "  %s (%d): %s\n", domain.OptionKey(n), n, area.Option(n))
				}
			}
			return nil
		},
	}
}
