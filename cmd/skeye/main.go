// Command skeye runs colour-plane template matching bots and serves the
// matching tools over MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	cli "github.com/spf13/cobra"

	"github.com/ironsheep/skeye/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	logOpts logging.Options
	logger  = zerolog.Nop()
	cleanup = func() {}

	rootCmd = &cli.Command{
		Use:           "skeye",
		Short:         "Screen bots driven by colour-plane template matching",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cli.Command, args []string) error {
			return setupLogging(logOpts)
		},
		PersistentPostRun: func(cmd *cli.Command, args []string) {
			cleanup()
		},
	}

	versionCmd = &cli.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cli.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "skeye %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logOpts.Level, "log-level", "info", "console log level (debug, info, warn, error); "+logging.EnvLevel+" overrides")
	flags.StringVar(&logOpts.File, "log-file", "", "also write debug-level JSON logs to this rotated file")
	flags.BoolVar(&logOpts.NoColor, "no-color", false, "disable coloured console output")

	rootCmd.AddCommand(versionCmd)
}

// setupLogging replaces the shared logger, closing any previous log file.
func setupLogging(opts logging.Options) error {
	l, c, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	cleanup()
	logger, cleanup = l, c
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("skeye failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		cleanup()
		os.Exit(1)
	}
}
