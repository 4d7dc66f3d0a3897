package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luofan/yupen/internal/etf"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Score the universe, persist the pool snapshot and push signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.GeneratePool(context.Background())
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <symbol>",
	Short: "Score one ETF (acquires history if the cache is stale)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, err := etf.ParseSymbol(args[0])
		if err != nil {
			return err
		}

		a, _, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		record, err := a.ScoreSymbol(context.Background(), symbol, "")
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", record.Symbol)
		fmt.Printf("  total     %.1f\n", record.Total)
		fmt.Printf("  liquidity %.1f\n", record.Liquidity)
		fmt.Printf("  risk      %.1f\n", record.Risk)
		fmt.Printf("  return    %.1f\n", record.Return)
		fmt.Printf("  premium   %.1f\n", record.Premium)
		fmt.Printf("  sentiment %.1f\n", record.Sentiment)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(scoreCmd)
}
