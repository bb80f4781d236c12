package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydraai/hydra/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check adapter readiness and git repository health",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := doctor.Run(cmd.Context(), ".")

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				if !report.Healthy() {
					return errUnhealthy
				}
				return nil
			}

			printHumanReport(cmd, report)
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

var errUnhealthy = fmt.Errorf("hydra doctor: one or more checks failed")

func printHumanReport(cmd *cobra.Command, report doctor.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Hydra Doctor Report")
	fmt.Fprintln(out, "===================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Git Repository:")
	if report.Git.IsRepo {
		fmt.Fprintln(out, "  Status: OK")
		if report.Git.CurrentBranch != nil {
			fmt.Fprintf(out, "  Branch: %s\n", *report.Git.CurrentBranch)
		}
		fmt.Fprintf(out, "  Working tree: %s\n", cleanLabel(report.Git.CleanWorkingTree))
		fmt.Fprintf(out, "  Has commits: %s\n", yesNo(report.Git.HasCommits))
	} else {
		fmt.Fprintln(out, "  Status: NOT A GIT REPO")
		if report.Git.Error != nil {
			fmt.Fprintf(out, "  Error: %s\n", *report.Git.Error)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Adapter Readiness:")
	fmt.Fprintf(out, "  All Tier-1 ready: %s\n", yesNoCaps(report.AllTier1Ready))
	fmt.Fprintln(out)

	for _, key := range sortedKeys(report.Adapters.Results) {
		r := report.Adapters.Results[key]
		fmt.Fprintf(out, "  [%s] %s (%s)\n", r.Tier, r.AdapterKey, r.Detect.Status)
		if r.Detect.BinaryPath != nil {
			fmt.Fprintf(out, "    binary: %s\n", *r.Detect.BinaryPath)
		}
		if r.Detect.Version != nil {
			fmt.Fprintf(out, "    version: %s\n", *r.Detect.Version)
		}
		if len(r.Detect.SupportedFlags) > 0 {
			fmt.Fprintf(out, "    flags: %s\n", joinComma(r.Detect.SupportedFlags))
		}
		if r.Detect.Error != nil {
			fmt.Fprintf(out, "    error: %s\n", *r.Detect.Error)
		}
	}

	fmt.Fprintln(out)
	if report.Healthy() {
		fmt.Fprintln(out, "Overall: HEALTHY")
	} else {
		fmt.Fprintln(out, "Overall: UNHEALTHY")
		if !report.AllTier1Ready {
			fmt.Fprintln(out, "  - One or more Tier-1 adapters are not ready")
		}
		if !report.GitOK {
			fmt.Fprintln(out, "  - Git repository checks failed")
		}
	}
}

func cleanLabel(clean bool) string {
	if clean {
		return "clean"
	}
	return "dirty"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func yesNoCaps(b bool) string {
	if b {
		return "yes"
	}
	return "NO"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
