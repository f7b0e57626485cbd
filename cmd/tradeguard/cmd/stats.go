package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard stats and recent activity",
	Long: `Summarize the most recent trades: success/failure counts, profit over
the dashboard window, and the full ledger size.

Example:
  tradeguard stats -f config.yaml`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	stats, err := s.TransactionStats()
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	fmt.Printf("Total transactions: %d\n", stats.Total)
	fmt.Printf("Recent window:      %d ok / %d failed / %d pending\n",
		stats.Successful, stats.Failed, stats.Pending)
	fmt.Printf("Window profit:      %s\n", stats.TotalProfit.String())
	fmt.Printf("Success rate:       %.1f%%\n", stats.SuccessRate)

	txs, err := s.DashboardTransactions()
	if err != nil {
		return fmt.Errorf("load dashboard: %w", err)
	}
	if len(txs) > 0 {
		fmt.Println()
		printTransactions(txs)
	}
	return nil
}
