package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/mcp"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Index the repository and serve it over the Model Context Protocol.

Tools:
  search  ranked chunks for a query (lexical, semantic or hybrid)
  ask     a grounded answer with its sources

Resources:
  repo://report, repo://files, repo://files/{path}

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead; Prometheus metrics are then
exposed on /metrics.

Examples:
  # Stdio mode (default)
  git-llm-analyzer mcp serve --repo ./myproject

  # HTTP mode, rebuilding when files change
  git-llm-analyzer mcp serve --port 8080 --watch`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("watch", false, "rebuild the index when repository files change")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	svc, _, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if watch {
		stop, err := startWatch(cmd, svc, WatchHooks{
			OnDone: func(report *domain.IngestReport, err error) {
				if err == nil {
					logger.Info("Index rebuilt: %d files, %d chunks", report.Documents(), report.Chunks)
				}
			},
		})
		if err != nil {
			return err
		}
		defer stop()
	}

	ports := &mcp.Ports{
		Retriever: svc.Retriever,
		Answerer:  svc.Answerer,
		Ingester:  svc.Ingester,
	}

	var opts []mcp.Option
	if svc.Metrics != nil {
		opts = append(opts, mcp.WithMetricsHandler(svc.Metrics))
	}

	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// startWatch starts background rebuilds for svc.
func startWatch(cmd *cobra.Command, svc *Services, hooks WatchHooks) (func(), error) {
	if svc.Watch == nil {
		return nil, fmt.Errorf("%w: --watch needs a local directory", domain.ErrInvalidInput)
	}
	stop, err := svc.Watch(cmd.Context(), hooks)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", svc.Source.Name(), err)
	}
	cmd.PrintErrf("Watching %s for changes\n", svc.Source.Root())
	return stop, nil
}
