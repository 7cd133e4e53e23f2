package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// newBaselineCmd groups the commands managing saved ignore lists.
func newBaselineCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "baseline",
		Aliases: []string{"ignore-lists"},
		Short:   "Manage the saved per-addin ignore lists",
		Long: `Ignore lists hold the report lines of an addin that are known not to
resolve against the host application. Lines in an addin's ignore list are not
reported as regressions. Lists are saved by 'console --save' or 'check --save-diffs'.`,
	}

	cmd.AddCommand(
		newBaselineListCmd(g),
		newBaselineShowCmd(g),
		newBaselineResetCmd(g),
	)
	return cmd
}

func newBaselineListCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved ignore lists",
		Args:  cobra.NoArgs,
		RunE: withContainer(g, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			entries, err := cc.Container.BaselineService().List(cc.Context)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No saved ignore lists in %s\n", cc.Container.IgnoreListDir()) //nolint:errcheck // Best-effort terminal output
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ADDIN\tLINES\tMODIFIED") //nolint:errcheck // Best-effort terminal output
			fmt.Fprintln(w, "-----\t-----\t--------") //nolint:errcheck // Best-effort terminal output
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\n", e.LocalID, e.Lines, e.ModTime.Format("2006-01-02 15:04")) //nolint:errcheck // Best-effort terminal output
			}
			return w.Flush()
		}),
	}
}

func newBaselineShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <addin-id>[,<version>]",
		Short: "Print the lines of a saved ignore list",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(g, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			entry, lines, err := cc.Container.BaselineService().Show(cc.Context, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "# %s (%s)\n", entry.LocalID, entry.Path) //nolint:errcheck // Best-effort terminal output
			for _, line := range lines {
				fmt.Fprintln(out, line) //nolint:errcheck // Best-effort terminal output
			}
			return nil
		}),
	}
}

func newBaselineResetCmd(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every saved ignore list",
		Args:  cobra.NoArgs,
		RunE: withContainer(g, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			if !yes {
				if !isInteractive() {
					return fmt.Errorf("refusing to reset without --yes in a non-interactive session")
				}
				confirmed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("Delete all ignore lists in %s?", cc.Container.IgnoreListDir())).
					Affirmative("Delete").
					Negative("Cancel").
					Value(&confirmed).
					Run()
				if err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
				if !confirmed {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled") //nolint:errcheck // Best-effort terminal output
					return nil
				}
			}
			return cc.Container.BaselineService().Reset(cc.Context)
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// isInteractive reports whether stdin is a terminal a prompt can read from.
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
