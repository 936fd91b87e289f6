package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tinytask version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
