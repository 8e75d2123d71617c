package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/lookout"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lookout",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lookout version %s\n", strings.TrimSpace(lookout.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
