package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/kiwari-pos/bar/internal/report"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var hourly bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print total revenue and drinks sold",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			records, err := opts.loadLedger(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}

			s := report.Summarize(records)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sales:   %d\n", s.SaleCount)
			fmt.Fprintf(out, "Revenue: %s\n\n", s.TotalRevenue.StringFixed(2))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DRINK\tCOUNT")
			for _, c := range s.Counts {
				fmt.Fprintf(tw, "%s\t%d\n", c.Description, c.Count)
			}
			if hourly {
				fmt.Fprintln(tw, "\nHOUR\tSALES\tREVENUE")
				for _, b := range report.HourlySales(records, cfg.Location()) {
					fmt.Fprintf(tw, "%02d:00\t%d\t%s\n", b.Hour, b.SaleCount, b.Revenue.StringFixed(2))
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&hourly, "hourly", false, "Also print sales per hour")
	return cmd
}
