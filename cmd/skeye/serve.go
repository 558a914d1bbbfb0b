package main

import (
	cli "github.com/spf13/cobra"

	"github.com/ironsheep/skeye/internal/server"
)

var serveCmd = &cli.Command{
	Use:   "serve",
	Short: "Serve the skeye tools over MCP on stdin/stdout",
	Long: `Serve the skeye tools over the Model Context Protocol.

The server reads one JSON-RPC request per line on stdin and writes responses
to stdout, so logs always go to stderr or the log file.
Configure it in your MCP client (e.g., Claude Desktop).`,
	Args: cli.NoArgs,
	RunE: func(cmd *cli.Command, args []string) error {
		logger.Debug().Str("version", Version).Str("commit", GitCommit).Msg("starting MCP server")
		return server.New(logger, Version).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
