package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRaceCmd is reserved: flag parsing for `hydra race` (agent selection,
// prompt source, token budget) is not yet wired to a human-readable report
// renderer. internal/race.Engine is fully implemented and exercised by its
// own tests; only this command-line surface is a stub.
func newRaceCmd() *cobra.Command {
	var agents []string
	var prompt string
	var allowExperimental bool
	var maxTokens uint64

	cmd := &cobra.Command{
		Use:   "race",
		Short: "Race agent CLIs against a shared prompt (not yet implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(agents) == 0 {
				return fmt.Errorf("hydra race: --agent must be specified at least once")
			}
			if prompt == "" {
				return fmt.Errorf("hydra race: --prompt must not be empty")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "hydra race: not yet implemented")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&agents, "agent", nil, "agent key to race (repeatable)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "task prompt text")
	cmd.Flags().BoolVar(&allowExperimental, "allow-experimental", false, "allow experimental-tier adapters")
	cmd.Flags().Uint64Var(&maxTokens, "max-tokens", 0, "abort agents once this many total tokens are used (0 = unbounded)")

	return cmd
}
