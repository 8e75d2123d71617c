package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lookout/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "lookout",
	Short: "Lookout is a terminal chat agent that can search the web",
	Long: `Lookout sends each line you type to an OpenAI-compatible model (Groq by default).
The model may call a Tavily web search before answering. Type /bye to leave.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	registerGlobalFlags(rootCmd.PersistentFlags())
}

func registerGlobalFlags(pf *pflag.FlagSet) {
	pf.String("config", "", "Path to a YAML config file")
	pf.Bool("debug", false, "Enable debug logging to stderr")
	pf.String("store", "", "Checkpoint store: memory, file or redis")
	pf.String("store-path", "", "Directory for the file store")
	pf.String("redis-url", "", "Redis URL for the redis store")
	pf.StringP("thread", "t", "", "Conversation thread id")
}

// loadConfig resolves defaults, the config file, the environment and the
// persistent flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("store") {
		cfg.Store.Kind, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		cfg.Store.Path, _ = flags.GetString("store-path")
	}
	if flags.Changed("redis-url") {
		cfg.Store.RedisURL, _ = flags.GetString("redis-url")
	}
	if flags.Changed("thread") {
		cfg.Chat.ThreadID, _ = flags.GetString("thread")
	}
	return cfg, nil
}
