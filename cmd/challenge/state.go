package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <session-id>",
		Short: "Print the phase, topic and budget of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(cmd).GameState(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch game state: %w", err)
			}

			out := cmd.OutOrStdout()
			topic := "-"
			if resp.CurrentTopic != nil {
				topic = *resp.CurrentTopic
			}
			fmt.Fprintf(out, "Phase:  %s\nTopic:  %s\nBudget: %d used, %d remaining\n",
				resp.CurrentPhase, topic, resp.BudgetUsed, resp.BudgetRemaining)

			areas := make([]string, 0, len(resp.SelectedPolicies))
			for area := range resp.SelectedPolicies {
				areas = append(areas, area)
			}
			sort.Strings(areas)
			for _, area := range areas {
				fmt.Fprintf(out, "  %-30s Option %d\n", area, resp.SelectedPolicies[area])
			}
			return nil
		},
	}
}
