package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Control live (real-funds) trading mode",
	Long: `Enable, disable or inspect live trading mode.

Enabling captures the current account balance as the floor below which no
buy is admitted. Disabling keeps the floor; only 'live recapture' moves it.

Subcommands:
  on        - Enable live mode (captures the balance floor)
  off       - Disable live mode (floor is kept)
  recapture - Re-read the balance and overwrite the floor
  status    - Show the guard state

Examples:
  tradeguard live on -f config.yaml
  tradeguard live status -f config.yaml`,
}

var liveOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable live mode and capture the balance floor",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runLiveToggle(cmd, true) },
}

var liveOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable live mode (the floor is kept)",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runLiveToggle(cmd, false) },
}

var liveRecaptureCmd = &cobra.Command{
	Use:   "recapture",
	Short: "Overwrite the balance floor from a fresh oracle read",
	Args:  cobra.NoArgs,
	RunE:  runLiveRecapture,
}

var liveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live mode, floor and realized profit",
	Args:  cobra.NoArgs,
	RunE:  runLiveStatus,
}

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.AddCommand(liveOnCmd)
	liveCmd.AddCommand(liveOffCmd)
	liveCmd.AddCommand(liveRecaptureCmd)
	liveCmd.AddCommand(liveStatusCmd)
}

func runLiveToggle(cmd *cobra.Command, on bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	if err := s.SetLiveMode(cmd.Context(), on); err != nil {
		return fmt.Errorf("set live mode: %w", err)
	}

	st := s.GuardStatus()
	if on {
		fmt.Printf("Live mode enabled, floor at %s\n", st.Floor.String())
	} else {
		fmt.Println("Live mode disabled; floor kept")
	}
	return nil
}

func runLiveRecapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	if err := s.RecaptureStartingBalance(cmd.Context()); err != nil {
		return fmt.Errorf("recapture: %w", err)
	}

	fmt.Printf("Floor recaptured at %s\n", s.GuardStatus().Floor.String())
	return nil
}

func runLiveStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	st := s.GuardStatus()
	fmt.Printf("Enabled:          %v\n", st.Enabled)
	if st.FloorCaptured {
		fmt.Printf("Floor:            %s\n", st.Floor.String())
	} else {
		fmt.Println("Floor:            (not captured)")
	}
	fmt.Printf("Realized profit:  %s ETH / %s USD\n",
		st.RealizedProfitETH.String(), st.RealizedProfitUSD.String())
	return nil
}
