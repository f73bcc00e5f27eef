package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	survey "github.com/Lokiragnarock/srm-cia-survey"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the survey as MCP tools (start_survey, advance, retreat,
peek_next, get_graph) so AI agents can fill it in.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		st, err := buildStack(ctx, cmd, nil)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := mcp.NewServer(st.Manager(),
			mcp.WithLogger(st.Logger),
			mcp.WithVersion(survey.Version),
			mcp.WithMaxInputSize(st.Settings.MaxInputSize),
		)

		switch transport {
		case "stdio":
			st.Logger.Info("Starting Survey MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			st.Logger.Info("Starting Survey MCP Server (SSE)", "addr", addr)
			return srv.ServeSSE(ctx, addr, baseURL)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
