package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/reglet-dev/addin-compat/internal/application/dto"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
	"github.com/spf13/cobra"
)

// checkOptions holds the flags of a compatibility check.
type checkOptions struct {
	CommonOptions

	appDir          string
	usePreview      bool
	addinDirs       []string
	addinArchives   []string
	addinArchiveDir []string
	baselineFile    string
	scannerConfig   string
	diffIgnoreFile  string
	diffOutputFile  string
	compareMode     string
	filterExpr      string
	includeAddins   []string
	excludeAddins   []string
	saveDiffs       bool
	maxLines        int
}

func newCheckOptions() *checkOptions {
	return &checkOptions{CommonOptions: DefaultCommonOptions()}
}

// RegisterFlags adds the check flags to a command.
func (o *checkOptions) RegisterFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Host application
	f.StringVar(&o.appDir, "app-dir", "", "Host application directory (default: the installed application)")
	f.BoolVar(&o.usePreview, "use-preview", false, "Use the preview application when --app-dir is not given")

	// Addins
	f.StringArrayVar(&o.addinDirs, "addin-dir", nil, "Directory of an extracted addin (repeatable)")
	f.StringArrayVar(&o.addinArchives, "addin-archive", nil, "Addin archive (.mpack) to extract and check (repeatable)")
	f.StringArrayVar(&o.addinArchiveDir, "addin-archive-dir", nil, "Directory searched for addin archives (repeatable)")

	// Baseline and diffs
	f.StringVar(&o.baselineFile, "baseline-file", "",
		"Baseline report; read when it exists, otherwise generated there")
	f.StringVar(&o.scannerConfig, "scanner-config", "", "Configuration file passed to the scanning engine")
	f.StringVar(&o.diffIgnoreFile, "diff-ignore-file", "", "Lines to ignore in the diff (single addin only)")
	f.StringVar(&o.diffOutputFile, "diff-output-file", "", "Write new lines to this file (single addin only)")
	f.StringVar(&o.compareMode, "compare-mode", string(values.CompareModeSet),
		"How reports are compared: set or sequence")
	f.BoolVar(&o.saveDiffs, "save-diffs", false, "Save the diffs of failing addins as their ignore lists")

	// Filtering
	f.StringVar(&o.filterExpr, "filter", "", "Filter addins by expression (e.g. 'name startsWith \"Xamarin\"')")
	f.StringSliceVar(&o.includeAddins, "addin", nil, "Only check these addin ids (comma-separated)")
	f.StringSliceVar(&o.excludeAddins, "skip-addin", nil, "Skip these addin ids (comma-separated)")

	f.IntVar(&o.maxLines, "max-lines", 50, "Lines shown per block in table output (0 for all)")

	o.CommonOptions.RegisterFlags(cmd)
}

// Validate checks flag values that do not need the filesystem.
func (o *checkOptions) Validate() error {
	if err := o.ValidateFlags(); err != nil {
		return err
	}
	if _, err := values.ParseCompareMode(o.compareMode); err != nil {
		return err
	}
	if o.maxLines < 0 {
		return fmt.Errorf("--max-lines must not be negative")
	}
	return nil
}

// request builds the use case input. Values bound through viper win over
// the raw flag fields so the config file and environment can supply them.
func (o *checkOptions) request(g *globalOptions) (dto.CheckRequest, error) {
	mode, err := values.ParseCompareMode(o.compareMode)
	if err != nil {
		return dto.CheckRequest{}, err
	}
	return dto.CheckRequest{
		AppDir:            g.v.GetString("app-dir"),
		UsePreview:        o.usePreview,
		AddinDirs:         o.addinDirs,
		AddinArchives:     o.addinArchives,
		AddinArchiveDirs:  o.addinArchiveDir,
		BaselineFile:      g.v.GetString("baseline-file"),
		ScannerConfigFile: g.v.GetString("scanner-config"),
		DiffIgnoreFile:    o.diffIgnoreFile,
		DiffOutputFile:    o.diffOutputFile,
		Mode:              mode,
		SaveDiffs:         o.saveDiffs,
		Filters: dto.FilterOptions{
			FilterExpression: o.filterExpr,
			IncludeAddinIDs:  o.includeAddins,
			ExcludeAddinIDs:  o.excludeAddins,
		},
		Metadata: dto.RequestMetadata{
			RequestID: uuid.New().String(),
		},
	}, nil
}

func (o *checkOptions) formatterOptions() ports.FormatterOptions {
	fo := o.FormatterOptions()
	fo.MaxLines = o.maxLines
	return fo
}

// newCheckCmd creates the check subcommand. It behaves like the root
// command and is what child processes of the console are started with.
func newCheckCmd(g *globalOptions) *cobra.Command {
	opts := newCheckOptions()

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check addins against a host application baseline",
		Long: `Check scans the host application for a baseline report, then scans each
addin and reports API references that the baseline does not satisfy.

With no addins, only the baseline is generated (or read) and the run passes.`,
		Example: `  # Generate a baseline report for later runs
  addin-compat check --app-dir ./MyApp.app --baseline-file baseline.txt

  # Check one addin, ignoring known differences and recording new ones
  addin-compat check --addin-dir ./MyAddin --diff-ignore-file known.txt --diff-output-file new.txt

  # Machine-readable results
  addin-compat check --addin-archive-dir ./artifacts --format sarif -o results.sarif`,
		Args: cobra.NoArgs,
		RunE: withContainer(g, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			return runCheck(cc, cmd, opts)
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}

// runCheck executes a check and writes the formatted result.
func runCheck(cc *CommandContext, cmd *cobra.Command, opts *checkOptions) error {
	// 1. Validate flags
	if err := opts.Validate(); err != nil {
		return err
	}
	cc.Globals.bindFlags(cmd, "app-dir", "baseline-file", "scanner-config", "format")
	if format := cc.Globals.v.GetString("format"); format != "" {
		opts.Format = format
		if err := opts.ValidateFlags(); err != nil {
			return err
		}
	}

	req, err := opts.request(cc.Globals)
	if err != nil {
		return err
	}

	// 2. Prepare the formatter before running so a bad output path fails fast
	w, closeOutput, err := opts.OpenOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput()

	formatter, err := cc.Container.Formatters().Create(opts.Format, w, opts.formatterOptions())
	if err != nil {
		return err
	}

	// 3. Run
	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	resp, err := cc.Container.CheckAddinsUseCase().Execute(ctx, req)
	if err != nil && resp == nil {
		return err
	}

	// 4. Report
	if ferr := formatter.Format(resp.RunResult); ferr != nil {
		return fmt.Errorf("failed to format output: %w", ferr)
	}
	reportDiagnostics(cmd, resp.Diagnostics)
	if err != nil {
		return err
	}

	if resp.Diagnostics.ExitCode != 0 {
		return apperrors.NewExitError(resp.Diagnostics.ExitCode, "")
	}
	return nil
}

//nolint:errcheck // Best-effort terminal output
func reportDiagnostics(cmd *cobra.Command, diag dto.Diagnostics) {
	errOut := cmd.ErrOrStderr()
	for _, w := range diag.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w)
	}
	if len(diag.SavedIgnoreLists) > 0 {
		fmt.Fprintf(errOut, "Saved %d ignore list(s):\n", len(diag.SavedIgnoreLists))
		for _, id := range diag.SavedIgnoreLists {
			fmt.Fprintf(errOut, "  %s\n", id)
		}
	}
}
