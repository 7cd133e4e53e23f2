package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/reglet-dev/addin-compat/internal/application/dto"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/container"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/watch"
	"github.com/spf13/cobra"
)

// consoleOptions holds the flags of the console command.
type consoleOptions struct {
	CommonOptions

	addinsRoot   string
	appDir       string
	usePreview   bool
	baselineFile string
	save         bool
	watch        bool
	debounce     time.Duration
}

// newConsoleCmd creates the console command. It checks every installed addin
// under a root, each one in its own child process, and offers to save the
// diffs of incompatible addins as their ignore lists.
func newConsoleCmd(g *globalOptions) *cobra.Command {
	opts := &consoleOptions{CommonOptions: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Check every installed addin and manage their ignore lists interactively",
		Long: `Console discovers the addins installed under --addins-root (latest version of
each id), checks each one in a child process, and prints a summary. When addins
are incompatible it asks whether to save their diffs as ignore lists, so that
known differences are not reported again.

With --watch the check is repeated whenever files under the root change, and
addins whose status changed since the previous run are highlighted.`,
		Example: `  # Check all installed addins against the installed application
  addin-compat console --addins-root ~/Library/Application\ Support/MyApp/LocalInstall/Addins

  # Keep checking while addins are rebuilt, saving diffs without asking
  addin-compat console --addins-root ./build/addins --watch --save`,
		Args: cobra.NoArgs,
		RunE: withContainerOptions(g, opts.configureContainer, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			return runConsole(cc, cmd, opts)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&opts.addinsRoot, "addins-root", "", "Directory holding installed addins (required)")
	f.StringVar(&opts.appDir, "app-dir", "", "Host application directory (default: the installed application)")
	f.BoolVar(&opts.usePreview, "use-preview", false, "Use the preview application when --app-dir is not given")
	f.StringVar(&opts.baselineFile, "baseline-file", "", "Baseline report; read when it exists, otherwise generated there")
	f.BoolVar(&opts.save, "save", false, "Save the diffs of incompatible addins without asking")
	f.BoolVar(&opts.watch, "watch", false, "Re-run the check when files under --addins-root change")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a watched change triggers a run")
	opts.CommonOptions.RegisterFlags(cmd)
	_ = cmd.MarkFlagRequired("addins-root")

	return cmd
}

// configureContainer runs every addin check in a child process of this binary.
func (o *consoleOptions) configureContainer(cmd *cobra.Command, opts *container.Options) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate own executable: %w", err)
	}
	opts.Subprocess = true
	opts.Executable = exe
	opts.Console = cmd.ErrOrStderr()

	// Child checks read the same system config through the environment.
	if opts.SystemConfigPath != "" {
		abs, err := filepath.Abs(opts.SystemConfigPath)
		if err != nil {
			return err
		}
		if err := os.Setenv("ADDIN_COMPAT_SYSTEM_CONFIG", abs); err != nil {
			return err
		}
	}
	return nil
}

func runConsole(cc *CommandContext, cmd *cobra.Command, opts *consoleOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	if opts.debounce <= 0 {
		return fmt.Errorf("--debounce must be positive")
	}

	resp, err := consoleRun(cc, cmd, opts)
	if err != nil {
		return err
	}
	if !opts.watch {
		return consoleExit(resp)
	}

	// Watch mode: re-run on changes until interrupted
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", opts.addinsRoot) //nolint:errcheck // Best-effort terminal output
	w := watch.New([]string{opts.addinsRoot}, opts.debounce, cc.Logger)
	err = w.Run(cc.Context, func(ctx context.Context) {
		next, err := consoleRun(&CommandContext{
			Container: cc.Container,
			Logger:    cc.Logger,
			Context:   ctx,
			Globals:   cc.Globals,
		}, cmd, opts)
		if err != nil {
			cc.Logger.Error("check failed", "error", err)
			return
		}
		printChanges(cmd.OutOrStdout(), cc, next)
		resp = next
	})
	if err != nil && cc.Context.Err() == nil {
		return err
	}
	return consoleExit(resp)
}

// consoleRun discovers the installed addins, checks them, prints the result
// and offers to save diffs.
func consoleRun(cc *CommandContext, cmd *cobra.Command, opts *consoleOptions) (*dto.CheckResponse, error) {
	addins, err := cc.Container.Discoverer().Discover(cc.Context, opts.addinsRoot)
	if err != nil {
		return nil, err
	}
	cc.Logger.Info("discovered addins", "root", opts.addinsRoot, "count", len(addins))

	dirs := make([]string, len(addins))
	for i, a := range addins {
		dirs[i] = a.Location
	}

	req := dto.CheckRequest{
		AppDir:       opts.appDir,
		UsePreview:   opts.usePreview,
		AddinDirs:    dirs,
		BaselineFile: opts.baselineFile,
		Metadata:     dto.RequestMetadata{RequestID: uuid.New().String()},
	}

	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	resp, err := cc.Container.CheckAddinsUseCase().Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	w, closeOutput, err := opts.OpenOutput(cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	defer closeOutput()

	formatter, err := cc.Container.Formatters().Create(opts.Format, w, opts.FormatterOptions())
	if err != nil {
		return nil, err
	}
	if err := formatter.Format(resp.RunResult); err != nil {
		return nil, fmt.Errorf("failed to format output: %w", err)
	}
	reportDiagnostics(cmd, resp.Diagnostics)

	if err := offerSave(cc, cmd, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

// offerSave persists the staged diffs when --save is set or the user agrees.
func offerSave(cc *CommandContext, cmd *cobra.Command, opts *consoleOptions) error {
	svc := cc.Container.BaselineService()
	if !svc.HasPending() {
		return nil
	}

	confirmed := opts.save
	if !confirmed {
		if !isInteractive() {
			cc.Logger.Debug("not a terminal, leaving diffs unsaved")
			return nil
		}
		err := huh.NewConfirm().
			Title("Save the diffs of incompatible extensions as their ignore lists?").
			Description("Saved lines are not reported again for the same addin version.").
			Affirmative("Save").
			Negative("Skip").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
	}
	if !confirmed {
		return nil
	}

	saved, err := svc.Save(cc.Context)
	if err != nil {
		return err
	}
	reportDiagnostics(cmd, dto.Diagnostics{SavedIgnoreLists: saved})
	return nil
}

// printChanges highlights addins whose status changed since the previous run.
//
//nolint:errcheck // Best-effort terminal output
func printChanges(w io.Writer, cc *CommandContext, resp *dto.CheckResponse) {
	runs, err := cc.Container.RunResults().FindByAppDir(cc.Context, resp.RunResult.AppDir, 2)
	if err != nil || len(runs) < 2 {
		return
	}

	changes := watch.CompareRuns(runs[1], runs[0])
	if len(changes) == 0 {
		fmt.Fprintln(w, "No status changes since the previous run")
		return
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "\n%d status change(s) since the previous run:\n", len(changes))
	for _, c := range changes {
		previous := string(c.Previous)
		if previous == "" {
			previous = "new"
		}
		fmt.Fprintf(w, "  %s: %s -> %s\n", c.Addin.DisplayName(), previous, c.Current)
	}
}

func consoleExit(resp *dto.CheckResponse) error {
	if resp != nil && resp.Diagnostics.ExitCode != 0 {
		return apperrors.NewExitError(resp.Diagnostics.ExitCode, "")
	}
	return nil
}
