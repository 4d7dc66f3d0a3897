package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var ipoCmd = &cobra.Command{
	Use:   "ipo",
	Short: "Fetch and push today's IPO subscription digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.PushIPO(context.Background())
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove aged files from the data directories (trade log exempt)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Cleanup(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(ipoCmd)
	rootCmd.AddCommand(cleanupCmd)
}
