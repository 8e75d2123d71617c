package main

import (
	"os"

	"github.com/aretw0/lookout/internal/cli"
	"github.com/spf13/cobra"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List stored conversation threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		backend, err := cli.OpenBackend(cfg, cli.NewLogger(cfg.Debug))
		if err != nil {
			return err
		}
		defer backend.Close()

		return cli.PrintThreads(cmd.Context(), os.Stdout, backend)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [thread-id]",
	Short: "Print the messages of a stored thread",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Chat.ThreadID = args[0]
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		backend, err := cli.OpenBackend(cfg, cli.NewLogger(cfg.Debug))
		if err != nil {
			return err
		}
		defer backend.Close()

		return cli.PrintHistory(cmd.Context(), os.Stdout, backend, cfg.Chat.ThreadID, asJSON)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more stored threads",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		backend, err := cli.OpenBackend(cfg, cli.NewLogger(cfg.Debug))
		if err != nil {
			return err
		}
		defer backend.Close()

		for _, id := range args {
			if err := backend.Sessions.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Removed thread '%s'\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("json", false, "Print the raw checkpoint as JSON")
}
