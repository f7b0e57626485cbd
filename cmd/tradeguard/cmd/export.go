package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full trade ledger",
	Long: `Write the entire trade history to a file or stdout, newest first.
Pages that fail to load are skipped so one corrupt page cannot block the
export.

Examples:
  tradeguard export -f config.yaml
  tradeguard export --format csv --out trades.csv -f config.yaml`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "json" && exportFormat != "csv" {
		return fmt.Errorf("format must be 'json' or 'csv'")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := buildSession(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()

	exp, err := s.ExportTransactionHistory()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	out := os.Stdout
	if exportOut != "" {
		out, err = os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	if exportFormat == "csv" {
		err = exp.WriteCSV(out)
	} else {
		err = exp.WriteJSON(out)
	}
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if exportOut != "" {
		fmt.Printf("Exported %d transactions to %s\n", exp.Count, exportOut)
	}
	return nil
}
