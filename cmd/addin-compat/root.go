package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// globalOptions holds the persistent flags and the viper instance backing them.
type globalOptions struct {
	v            *viper.Viper
	cfgFile      string
	systemConfig string
	cacheDir     string
	verbose      bool
	quiet        bool
}

// newRootCmd builds the command tree. The root command runs a check.
func newRootCmd() *cobra.Command {
	g := &globalOptions{v: viper.New()}
	opts := newCheckOptions()

	root := &cobra.Command{
		Use:   "addin-compat",
		Short: "Check addins for binary compatibility with a host application",
		Long: `addin-compat scans a host application to build a baseline report of the
API references it satisfies, then scans each addin against it. Any reference an
addin makes that the baseline does not contain is reported as a regression.

Exit codes: 0 all addins compatible, 1 incompatible or failed addins,
255 (-1) configuration or usage errors.`,
		Example: `  # Check an extracted addin against the installed application
  addin-compat --addin-dir ./bin/MyAddin

  # Check every .mpack under a directory against a saved baseline
  addin-compat --app-dir "/Applications/Visual Studio.app" \
    --addin-archive-dir ./artifacts --baseline-file baseline.txt`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.initConfig(); err != nil {
				return err
			}
			return g.setupLogging(cmd.ErrOrStderr())
		},
		RunE:          withContainer(g, func(cc *CommandContext, cmd *cobra.Command, _ []string) error { return runCheck(cc, cmd, opts) }),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := root.PersistentFlags()
	pf.StringVar(&g.cfgFile, "config", "", "config file (default is $HOME/.addin-compat.yaml)")
	pf.StringVar(&g.systemConfig, "system-config", "", "system config file (default is $HOME/.addin-compat/config.yaml)")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "directory for saved ignore lists (overrides the system config)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "quiet output (errors only)")

	opts.RegisterFlags(root)

	root.AddCommand(
		newCheckCmd(g),
		newBaselineCmd(g),
		newConsoleCmd(g),
		newVersionCmd(),
	)
	return root
}

// initConfig loads defaults from the config file and ADDIN_COMPAT_* environment variables.
func (g *globalOptions) initConfig() error {
	if g.cfgFile != "" {
		g.v.SetConfigFile(g.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		g.v.AddConfigPath(home)
		g.v.SetConfigType("yaml")
		g.v.SetConfigName(".addin-compat")
	}

	g.v.SetEnvPrefix("ADDIN_COMPAT")
	g.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	g.v.AutomaticEnv()

	if err := g.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if g.cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	slog.Debug("using config file", "file", g.v.ConfigFileUsed())
	return nil
}

// bindFlags lets the config file and environment supply these flags.
func (g *globalOptions) bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = g.v.BindPFlag(name, f)
		}
	}
}

func (g *globalOptions) setupLogging(w io.Writer) error {
	if g.verbose && g.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	level := slog.LevelInfo
	switch {
	case g.verbose:
		level = slog.LevelDebug
	case g.quiet:
		level = slog.LevelError
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
