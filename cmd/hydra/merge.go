package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMergeCmd is reserved: internal/merge.DryRun and internal/merge.Merge
// are fully implemented and tested, but their command-line surface (branch
// selection, conflict report rendering) is not yet wired up.
func newMergeCmd() *cobra.Command {
	var source string
	var target string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Preview or apply a merge of a winning candidate branch (not yet implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				return fmt.Errorf("hydra merge: --source must not be empty")
			}
			if target == "" {
				return fmt.Errorf("hydra merge: --target must not be empty")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "hydra merge: not yet implemented")
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source branch (the winning candidate)")
	cmd.Flags().StringVar(&target, "target", "", "target branch to merge into")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the merge without applying it")

	return cmd
}
