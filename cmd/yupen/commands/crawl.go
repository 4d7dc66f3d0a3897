package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the daily acquisition batch over the full ETF universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.CrawlDaily(context.Background())
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Refetch only the symbols the last batch left unfinished",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ResumeCrawl(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(resumeCmd)
}
