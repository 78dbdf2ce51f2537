package main

import (
	"context"

	"github.com/spf13/cobra"

	"siapcheck/internal/logging"
	mcpserver "siapcheck/internal/mcp"
	"siapcheck/internal/metrics"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing list_scenarios,
classify_document, evaluate_document and latest_result. Results are stored
when a store is configured. metrics.addr in the config additionally serves
Prometheus metrics over HTTP.

The server exits when its parent process goes away.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	m := metrics.New()
	ev, err := newEvaluator(m)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	stopMetrics := serveMetrics(cfg.Metrics.Addr, m)
	defer stopMetrics()

	srv := mcpserver.NewServer(ev, st)
	srv.OnResult = m.ObserveResult

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting siapcheck MCP server over stdio (parent watchdog active)",
		"scenarios", ev.Registry.Len())
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
