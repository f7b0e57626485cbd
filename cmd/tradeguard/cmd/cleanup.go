package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Drop the oldest ledger pages beyond the retention cap",
	Long: `Apply the retention policy: delete the oldest history pages until at
most --cap records remain. This permanently discards the dropped records,
which is why it only runs when invoked here (or on the configured schedule
of 'run'), never as a side effect of recording a trade.

Example:
  tradeguard cleanup --cap 100 -f config.yaml`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var cleanupCap uint64

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().Uint64Var(&cleanupCap, "cap", 0, "max records to keep (default from config, then 100)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	cap := cleanupCap
	if cap == 0 {
		cap = cfg.Retention.Cap
	}

	before, err := s.TransactionStats()
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	if err := s.CleanupOldTransactions(cap); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	after, err := s.TransactionStats()
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	fmt.Printf("Retention cleanup: %d -> %d transactions\n", before.Total, after.Total)
	return nil
}
