package main

import (
	"github.com/aretw0/lookout/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent as a JSON HTTP API",
	Long: `Starts an HTTP server exposing the agent:
  POST /threads/{id}/messages, GET /threads, GET|DELETE /threads/{id},
  GET /threads/{id}/events (SSE), GET /graph, GET /healthz and GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		return cli.Serve(cmd.Context(), cfg, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
