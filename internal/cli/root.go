package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	flagVerbose bool
	flagNoColor bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "pulse",
	Short:   "A high-throughput latched-histogram statistics engine",
	Version: version,
	Long: `Pulse converts streams of timestamped samples into derived statistics:
rates, percentile estimates, histogram distributions and time-windowed
heatmaps, organized per logical channel. The serve command runs the engine
with an HTTP stats endpoint; bench exercises the engine under concurrent
load and cross-checks its percentile estimates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	RootCmd.AddCommand(benchCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(readCmd)
}

// newLogger builds the process logger honoring the verbosity flag.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    flagNoColor,
	}))
}
