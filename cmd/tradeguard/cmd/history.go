package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show one page of the trade ledger",
	Long: `Display a page of the trade ledger, newest first (page 0 is the newest).

Examples:
  tradeguard history -f config.yaml
  tradeguard history --page 2 -f config.yaml`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyPage uint32

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Uint32VarP(&historyPage, "page", "p", 0, "page index (0 = newest)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	hp, err := s.TransactionHistory(historyPage)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	fmt.Printf("Page %d of %d (%d transactions total)\n\n", hp.Page, hp.TotalPages, hp.TotalTransactions)
	if len(hp.Transactions) == 0 {
		fmt.Println("(empty page)")
		return nil
	}

	printTransactions(hp.Transactions)
	return nil
}

func printTransactions(txs []ledger.Transaction) {
	fmt.Printf("%-28s %-6s %-8s %12s %10s %12s  %s\n",
		"ID", "KIND", "SYMBOL", "AMOUNT", "STATUS", "PROFIT", "CREATED")
	for _, tx := range txs {
		profit := "-"
		if tx.Profit != nil {
			profit = tx.Profit.String()
		}
		fmt.Printf("%-28s %-6s %-8s %12s %10s %12s  %s\n",
			tx.ID, tx.Kind, tx.Symbol, tx.Amount.String(), tx.Status, profit,
			tx.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
