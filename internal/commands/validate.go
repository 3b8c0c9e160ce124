package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fundbook-dev/fundbook/internal/importer"
	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

func newValidateCommand(configPath *string) *cobra.Command {
	var flags tabularFlags
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "validate <upload-id>",
		Short: "Dry-run an upload through the mapping and report the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), *configPath, args[0], flags.options(), mappingPath)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&mappingPath, "mapping", "mapping.yaml", "column mapping file")

	return cmd
}

func runValidate(ctx context.Context, out io.Writer, configPath, uploadID string, opts tabular.Options, mappingPath string) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := mapping.Load(mappingPath)
	if err != nil {
		return fmt.Errorf("loading mapping: %w", err)
	}

	tol, err := cfg.Tolerance()
	if err != nil {
		return err
	}

	svc := importer.NewService(st)
	report, err := svc.Validate(ctx, uploadID, opts, m)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Rows read:           %d\n", report.RowsRead)
	fmt.Fprintf(out, "Rows kept:           %d\n", report.RowsKept)
	fmt.Fprintf(out, "Missing account:     %d\n", report.MissingAccount)
	fmt.Fprintf(out, "Missing fund:        %d\n", report.MissingFund)
	fmt.Fprintf(out, "Non-numeric amount:  %d\n", report.NonNumeric)
	fmt.Fprintf(out, "Both debit+credit:   %d\n", report.BothDebitCredit)
	fmt.Fprintf(out, "Zero filtered:       %d\n", report.ZeroFiltered)
	fmt.Fprintf(out, "Net total:           %s\n", report.NetTotal.StringFixed(2))
	if report.BalancedWithin(tol) {
		fmt.Fprintf(out, "Balanced within %s\n", tol.StringFixed(2))
	} else {
		fmt.Fprintf(out, "NOT balanced within %s\n", tol.StringFixed(2))
	}

	fmt.Fprintln(out, "\nFunds:")
	for _, code := range report.FundCodes() {
		fmt.Fprintf(out, "  %-12s %d lines\n", code, report.FundCounts[code])
	}

	if len(report.TopExposures) > 0 {
		fmt.Fprintln(out, "\nLargest lines:")
		for _, e := range report.TopExposures {
			fmt.Fprintf(out, "  row %-6d %-12s %-16s %s\n", e.SourceRow, e.Fund, e.Account, e.AbsAmount.StringFixed(2))
		}
	}
	return nil
}
