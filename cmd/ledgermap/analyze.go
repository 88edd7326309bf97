package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/asanchezr/ledgermap/internal/mapping"
	"github.com/asanchezr/ledgermap/pkg/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Detect the field mapping of an export file without transforming it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
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

		printReport(result, len(t.Columns))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func printReport(result *mapping.Result, totalColumns int) {
	fmt.Printf("ERP system:   %s\n", result.ERPSystem)
	fmt.Printf("Columns:      %d total, %d mapped, %d unmapped\n\n",
		totalColumns, len(result.Mappings), len(result.Unmapped))

	columns := make([]string, 0, len(result.Mappings))
	for column := range result.Mappings {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	fmt.Println("Mappings:")
	for _, column := range columns {
		fmt.Printf("  %-30s -> %-24s %.3f (%s)\n",
			column, result.Mappings[column], result.Confidences[column], result.Sources[column])
	}

	if len(result.Outcomes) > 0 {
		fmt.Println("\nConflicts:")
		for _, o := range result.Outcomes {
			fmt.Printf("  %-24s won by %-30s over %-30s (%s)\n",
				o.Field, quoted(o.Winner), quoted(o.Loser), o.Reason)
		}
	}

	if len(result.Unmapped) > 0 {
		fmt.Println("\nUnmapped:")
		for _, column := range result.Unmapped {
			fmt.Printf("  %s", column)
			if suggestions := result.Suggestions[column]; len(suggestions) > 0 {
				fmt.Printf("  (close to: %v)", suggestions)
			}
			fmt.Println()
		}
	}
}

func quoted(s string) string {
	return "'" + s + "'"
}
