package main

import (
	"os"

	"github.com/aretw0/lookout/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the agent graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the agent and tools nodes.
With --thread, the nodes visited by that thread are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cli.NewLogger(cfg.Debug)

		backend, err := cli.OpenBackend(cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		// The graph shape does not depend on the model; the client is never called.
		if cfg.Model.APIKey == "" {
			cfg.Model.APIKey = "unused"
		}
		model, err := cli.NewModel(cfg, logger)
		if err != nil {
			return err
		}
		a, err := cli.NewAgent(cfg, cli.AgentDeps{
			Model:   model,
			Tools:   cli.NewTools(cfg, logger),
			Backend: backend,
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		threadID := ""
		if cmd.Flags().Changed("thread") {
			threadID = cfg.Chat.ThreadID
		}
		return cli.PrintGraph(cmd.Context(), os.Stdout, a.Graph(), threadID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
