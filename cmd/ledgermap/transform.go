package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asanchezr/ledgermap/internal/balance"
	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/clean"
	"github.com/asanchezr/ledgermap/internal/export"
	"github.com/asanchezr/ledgermap/internal/mapping"
	"github.com/asanchezr/ledgermap/internal/table"
	"github.com/asanchezr/ledgermap/pkg/config"
	"github.com/asanchezr/ledgermap/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	outDirFlag    string
	outPrefixFlag string
)

var transformCmd = &cobra.Command{
	Use:   "transform <file>",
	Short: "Map, clean and export a file as standardized header/detail CSVs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if outDirFlag == "" {
			outDirFlag = cfg.Output.Dir
		}
		if outPrefixFlag == "" {
			outPrefixFlag = cfg.Output.Prefix
		}

		cat, err := loadCatalog(cfg, logger)
		if err != nil {
			return err
		}
		t, err := readInput(args[0], logger)
		if err != nil {
			return err
		}

		detector := mapping.NewDetector(cat, logger,
			mapping.WithSampleSize(cfg.Detection.SampleSize),
			mapping.WithMinConfidence(cfg.Detection.MinConfidence),
			mapping.WithBalanceTolerance(cfg.Detection.BalanceTolerance),
		)
		result := detector.Detect(t, erpHint(cfg))
		if len(result.Mappings) == 0 {
			return fmt.Errorf("no columns could be mapped; nothing to transform")
		}

		processor := clean.NewProcessor(cat, logger)
		cleaned, stats := processor.Process(t, result.Mappings)

		writer := export.NewWriter(outDirFlag, outPrefixFlag, logger)
		headerPath, detailPath, err := writer.Write(cleaned)
		if err != nil {
			return err
		}

		fmt.Printf("ERP system:  %s\n", result.ERPSystem)
		fmt.Printf("Mapped:      %d/%d columns\n", len(result.Mappings), len(t.Columns))
		fmt.Printf("Rows:        %d\n", stats.Rows)
		fmt.Printf("Header file: %s\n", headerPath)
		fmt.Printf("Detail file: %s\n", detailPath)

		printBalanceReport(cleaned, cfg.Detection.BalanceTolerance, cfg.Output.Currency)
		return nil
	},
}

func init() {
	transformCmd.Flags().StringVar(&outDirFlag, "out-dir", "", "output directory (default from environment, results)")
	transformCmd.Flags().StringVar(&outPrefixFlag, "out-prefix", "", "output file prefix (default from environment, transformed)")
	rootCmd.AddCommand(transformCmd)
}

// printBalanceReport validates debit/credit balance per journal entry on the
// cleaned table. Skipped when the export carries no debit/credit columns.
func printBalanceReport(t *table.Table, tolerance float64, currency string) {
	ids := t.Lookup(string(catalog.JournalEntryID))
	debitColumn := t.Lookup(string(catalog.DebitAmount))
	creditColumn := t.Lookup(string(catalog.CreditAmount))
	if ids == nil || debitColumn == nil || creditColumn == nil {
		fmt.Println("\nBalance validation skipped: journal id or amount columns not mapped")
		return
	}

	report := balance.NewValidator(tolerance).Validate(
		ids.Values, parseColumn(debitColumn), parseColumn(creditColumn))

	fmt.Printf("\nBalance validation:\n")
	fmt.Printf("  Entries:        %d (%d balanced)\n", len(report.Groups), report.BalancedGroups)
	fmt.Printf("  Total debit:    %s\n", money.Format(report.TotalDebit, currency))
	fmt.Printf("  Total credit:   %s\n", money.Format(report.TotalCredit, currency))
	fmt.Printf("  Difference:     %s\n", money.Format(report.TotalDiff, currency))
	fmt.Printf("  Balance score:  %.3f\n", report.Score)
}

func parseColumn(c *table.Column) []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.Values))
	for i, raw := range c.Values {
		out[i] = money.ParseOrZero(raw)
	}
	return out
}
