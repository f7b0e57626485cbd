package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/config"
	"github.com/rustyeddy/tradeguard/guard"
	"github.com/rustyeddy/tradeguard/ledger"
	"github.com/rustyeddy/tradeguard/notify"
	"github.com/rustyeddy/tradeguard/oracle"
	"github.com/rustyeddy/tradeguard/session"
	"github.com/rustyeddy/tradeguard/store"
)

var rootCmd = &cobra.Command{
	Use:   "tradeguard",
	Short: "Safety and record-keeping layer for an automated trading assistant",
	Long: `Tradeguard guards real-funds trading behind a balance floor and keeps a
durable, paginated ledger of every trade attempt.

It provides tools for:
  - Enabling/disabling live mode with an oracle-captured balance floor
  - Admission checks that block buys which would breach the floor
  - Paginated trade history, dashboard stats and exports
  - Explicit retention cleanup of old history pages

Complete documentation is available at https://github.com/rustyeddy/tradeguard`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	// A .env next to the binary can carry the oracle token and telegram
	// credentials so they stay out of the config file.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// buildSession wires store, oracle and notifier into a session. The returned
// closer releases the store.
func buildSession(cfg *config.Config, log zerolog.Logger) (*session.Session, func(), error) {
	var st store.Store
	var err error
	switch cfg.Store.Type {
	case "memory":
		st = store.NewMemory()
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
	}

	timeout, _ := cfg.Oracle.ParseTimeout()
	or := oracle.NewClient(cfg.Oracle.Endpoint, cfg.Oracle.Token, timeout)

	var n notify.Notifier = notify.NewLog(log)
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram notifier disabled")
		} else {
			n = notify.Multi{notify.NewLog(log), tg}
		}
	}

	g := guard.New(cfg.User.ID, st, or, n, log)
	l := ledger.New(st, n, log)

	return session.New(cfg.User.ID, g, l), func() { _ = st.Close() }, nil
}
