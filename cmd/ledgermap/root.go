package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/ingest"
	"github.com/asanchezr/ledgermap/internal/table"
	"github.com/asanchezr/ledgermap/pkg/config"
)

var (
	erpFlag       string
	catalogFlag   string
	delimiterFlag string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgermap",
	Short: "Map heterogeneous accounting exports onto canonical journal fields",
	Long: `ledgermap ingests journal export files from SAP, Oracle, Navision and
generic spreadsheets, maps their arbitrary column names onto the canonical
accounting fields using synonym dictionaries and content heuristics, then
cleans the data and emits standardized header/detail CSV files.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&erpFlag, "erp", "", "ERP hint (SAP, Oracle, Navision, SAGE, PeopleSoft, Generic_ES); auto-detected when empty")
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "path to a synonym catalog YAML file (built-in catalog when empty)")
	rootCmd.PersistentFlags().StringVar(&delimiterFlag, "delimiter", "", "CSV delimiter override; auto-detected when empty")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run_id", uuid.NewString()))
}

// loadCatalog resolves the synonym catalog: the --catalog flag wins, then
// the environment, then the built-in defaults.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	path := catalogFlag
	if path == "" {
		path = cfg.Catalog.Path
	}
	if path == "" {
		return catalog.Default(), nil
	}

	loader := catalog.NewLoader(path, logger)
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	if cfg.Catalog.AutoReload {
		watcher := catalog.NewWatcher(loader, cfg.Catalog.ReloadSchedule, logger)
		if err := watcher.Start(); err != nil {
			return nil, fmt.Errorf("starting catalog watcher: %w", err)
		}
	}
	return loader.Snapshot(), nil
}

// readInput ingests a CSV or Excel export by file extension.
func readInput(path string, logger *slog.Logger) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ingest.ReadExcel(f)
	default:
		var opts *ingest.DetectOptions
		if delimiterFlag != "" {
			opts = &ingest.DetectOptions{HeaderRowIndex: -1, Delimiter: rune(delimiterFlag[0])}
		}
		t, fileConfig, err := ingest.ReadCSV(f, opts)
		if err != nil {
			return nil, err
		}
		logger.Debug("input sniffed",
			slog.String("delimiter", string(fileConfig.Delimiter)),
			slog.Int("skip_lines", fileConfig.SkipLines),
			slog.String("fingerprint", fileConfig.Fingerprint[:12]))
		return t, nil
	}
}

func erpHint(cfg *config.Config) string {
	if erpFlag != "" {
		return erpFlag
	}
	return cfg.Detection.ERPHint
}
