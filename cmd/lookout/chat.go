package main

import (
	"os"

	"github.com/aretw0/lookout/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat loop",
	Long: `Prompts with "you: " and prints each answer prefixed with "Agent: ".
Type /bye or close the input to leave. Every turn is checkpointed on the thread.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		jsonMode, _ := flags.GetBool("json")
		if flags.Changed("render") {
			cfg.Chat.Render, _ = flags.GetBool("render")
		}
		if flags.Changed("no-tools") {
			cfg.Search.Disabled, _ = flags.GetBool("no-tools")
		}
		if flags.Changed("confirm") {
			cfg.Chat.Confirm, _ = flags.GetBool("confirm")
		}
		if flags.Changed("handle-tool-errors") {
			cfg.Chat.ToolErrors, _ = flags.GetBool("handle-tool-errors")
		}
		if flags.Changed("metrics-addr") {
			cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
		}
		if flags.Changed("system") {
			cfg.Chat.SystemPrompt, _ = flags.GetString("system")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		return cli.RunChat(cmd.Context(), cfg, cli.ChatOptions{
			In:     os.Stdin,
			Out:    os.Stdout,
			JSON:   jsonMode,
			Banner: term.IsTerminal(int(os.Stdout.Fd())),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	f := chatCmd.Flags()
	f.Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	f.Bool("render", false, "Render replies as markdown")
	f.Bool("no-tools", false, "Disable web search")
	f.Bool("confirm", false, "Ask before every tool call")
	f.Bool("handle-tool-errors", false, "Report tool failures to the model instead of stopping")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	f.String("system", "", "System prompt for new threads")

	// chat is the default command
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
