// Command hydra is the orchestration kernel's CLI entrypoint: doctor
// (adapter + git readiness), and reserved race/merge command stubs whose
// underlying packages are fully implemented.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "hydra",
		Short:   "Race coding-agent CLIs against a shared prompt and merge the winner",
		Version: Version,
		Long: `Hydra orchestrates concurrent AI coding-agent CLI "races" against a shared
task prompt. Each agent runs in its own Git worktree under a supervised
process with bounded timeouts; a deterministic scoring engine ranks the
resulting candidate branches, and a merge service previews and applies the
winner.`,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newRaceCmd())
	root.AddCommand(newMergeCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hydra version %s\n", Version)
			return err
		},
	}
}

func Execute() error {
	return NewRootCmd().Execute()
}
