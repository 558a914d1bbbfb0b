package main

import (
	"encoding/json"
	"fmt"

	cli "github.com/spf13/cobra"

	"github.com/ironsheep/skeye/internal/config"
	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/script"
)

var (
	dryRun bool

	runCmd = &cli.Command{
		Use:   "run SCRIPT",
		Short: "Run the bot described by SCRIPT against the screen",
		Long: `Run the bot described by SCRIPT (YAML, JSON or TOML).

Without a source, locate steps poll the live screen. With --dry-run, clicks,
commands and typing are recorded and printed instead of performed.`,
		Args: cli.ExactArgs(1),
		RunE: runBot,
	}
)

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "record effector actions instead of performing them")
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cli.Command, args []string) error {
	s, err := config.Load(args[0])
	if err != nil {
		return err
	}

	// The script's log settings apply unless given on the command line.
	opts := logOpts
	if !cmd.Flags().Changed("log-level") && s.LogLevel != "" {
		opts.Level = s.LogLevel
	}
	if !cmd.Flags().Changed("log-file") && s.LogFile != "" {
		opts.File = s.LogFile
	}
	if opts != logOpts {
		if err := setupLogging(opts); err != nil {
			return err
		}
	}

	var deps script.Deps
	var rec *effector.Recorder
	if dryRun {
		rec = &effector.Recorder{}
		deps.Effector = rec
	}

	bot, env, err := script.Build(cmd.Context(), s, deps, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("script", args[0]).Int("commands", len(bot.Commands)).Bool("dry_run", dryRun).Msg("bot started")
	if _, err := bot.Run(cmd.Context(), env); err != nil {
		return err
	}
	logger.Info().Msg("bot finished")

	if rec != nil {
		out, err := json.MarshalIndent(rec.Calls(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return nil
}
