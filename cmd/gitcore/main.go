package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
)

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	CommitSHA = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir       string
	logLevel  string
	logFormat string
	verbose   bool
	color     string
	overrides []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "gitcore",
		Short:         "gitcore - Git object, reference and history tooling",
		Version:       fmt.Sprintf("%s (built: %s, commit: %s)", Version, BuildTime, CommitSHA),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&g.dir, "directory", "C", ".", "Run as if started in this directory")
	f.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output (sets log level to debug)")
	f.StringVar(&g.color, "color", "", "Color output (always, never, auto); defaults to color.ui")
	f.StringArrayVarP(&g.overrides, "config", "c", nil, "Set a configuration value for this run (key=value)")

	root.AddCommand(
		newInitCmd(g),
		newStatusCmd(g),
		newAddCmd(g),
		newRmCmd(g),
		newCommitCmd(g),
		newLogCmd(g),
		newDiffCmd(g),
		newBlameCmd(g),
		newHashObjectCmd(g),
		newCatFileCmd(g),
		newWriteTreeCmd(g),
		newShowRefCmd(g),
		newUpdateRefCmd(g),
		newSymbolicRefCmd(g),
		newBranchCmd(g),
		newCheckoutCmd(g),
		newConfigCmd(g),
	)
	return root
}

func (g *globalOptions) setup() error {
	level, err := logger.ParseLevel(g.logLevel)
	if err != nil {
		return err
	}
	if g.verbose {
		level = logger.LevelDebug
	}
	format, err := logger.ParseFormat(g.logFormat)
	if err != nil {
		return err
	}
	logger.Default = logger.New(logger.Config{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
	if g.color != "" {
		ui.SetColorMode(g.color)
	}
	return nil
}
