package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/mcp"
	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - bracket_reconstruct: ranking, rounds and links of a round document
  - bracket_compare: which of two entrants is placed first
  - bracket_pairs: advancement links only

Logs are written as JSON to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer sess.close()

			srv := mcp.NewServer(mcp.ServerDeps{
				Service:        sess.svc,
				Logger:         sess.logger,
				Metrics:        sess.svc.Metrics(),
				Tracer:         sess.providers.Tracer,
				ValidateSchema: sess.cfg.Input.ValidateSchema,
			})

			sess.logger.Info("mcp server starting", "tools", srv.ListToolNames())

			return srv.Run(contextOf(cmd))
		},
	}
}
