package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a long-lived session",
	Long: `Keep a session open, with the optional scheduled retention cleanup
from the config. The trading loop itself lives outside this binary; run is
for operating the guard and ledger as a service.

Example:
  tradeguard run -f config.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	s, closer, err := buildSession(cfg, log)
	if err != nil {
		return err
	}
	defer closer()

	st := s.GuardStatus()
	log.Info().
		Str("user", cfg.User.ID).
		Bool("live", st.Enabled).
		Bool("floor_captured", st.FloorCaptured).
		Msg("session started")

	var c *cron.Cron
	if cfg.Retention.Schedule != "" {
		c = cron.New()
		_, err := c.AddFunc(cfg.Retention.Schedule, func() {
			if err := s.CleanupOldTransactions(cfg.Retention.Cap); err != nil {
				log.Warn().Err(err).Msg("scheduled retention cleanup failed")
			}
		})
		if err != nil {
			return fmt.Errorf("retention schedule %q: %w", cfg.Retention.Schedule, err)
		}
		c.Start()
		defer c.Stop()
		log.Info().Str("schedule", cfg.Retention.Schedule).Msg("retention cleanup scheduled")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("session stopped")
	return nil
}
