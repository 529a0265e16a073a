package main

import (
	"context"

	"github.com/kiwari-pos/bar/internal/config"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/spf13/cobra"
)

// options are shared by every subcommand.
type options struct {
	backend   string
	sheetPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "barctl",
		Short: "Inspect and export the bar sales ledger",
		Long: `barctl reads the sales ledger configured for the bar terminals and
prints the end-of-night summary or exports it as sales_report.csv.

The ledger backend and location come from the same environment variables
as the server (LEDGER_BACKEND, DATABASE_URL, LEDGER_SHEET_PATH) and can be
overridden with flags.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Ledger backend: memory, postgres or sheet")
	root.PersistentFlags().StringVar(&opts.sheetPath, "sheet", "", "Workbook path for the sheet backend")

	root.AddCommand(newSummaryCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

// loadConfig applies flag overrides on top of the environment.
func (o *options) loadConfig() *config.Config {
	cfg := config.Load()
	if o.backend != "" {
		cfg.LedgerBackend = o.backend
	}
	if o.sheetPath != "" {
		cfg.LedgerSheetPath = o.sheetPath
	}
	return cfg
}

// loadLedger reads every recorded sale from the configured store.
func (o *options) loadLedger(ctx context.Context, cfg *config.Config) ([]ledger.SaleRecord, error) {
	store, closeStore, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return store.LoadAll(ctx)
}
