package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/kiwari-pos/bar/internal/report"
	"github.com/kiwari-pos/bar/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		out    string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a CSV report",
		Long: `export writes the ledger as CSV with the header time,drink,price.
Times are HH:MM:SS in the configured TIMEZONE and prices have two decimals.
Use --out - to write to stdout and --upload to also push the file to the
configured R2 bucket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			loc := cfg.Location()
			records, err := opts.loadLedger(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}

			var buf bytes.Buffer
			if err := report.ExportCSV(&buf, records, loc); err != nil {
				return fmt.Errorf("export csv: %w", err)
			}

			if out == "-" {
				if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
					return err
				}
			} else {
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sales to %s\n", len(records), out)
			}

			if !upload {
				return nil
			}
			client, err := storage.NewR2Client(cmd.Context(), cfg.R2)
			if err != nil {
				return err
			}
			url, err := client.Upload(cmd.Context(), storage.ReportKey(time.Now().In(loc)), bytes.NewReader(buf.Bytes()), "text/csv")
			if err != nil {
				return fmt.Errorf("upload report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded to %s\n", url)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", report.CSVFilename, "Output file, or - for stdout")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the report to R2 object storage")
	return cmd
}
