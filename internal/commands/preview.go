package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fundbook-dev/fundbook/internal/importer"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

func newPreviewCommand(configPath *string) *cobra.Command {
	var flags tabularFlags
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <upload-id>",
		Short: "Show the first rows of an upload as they will be parsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), cmd.OutOrStdout(), *configPath, args[0], flags.options(), rows)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&rows, "rows", 0, "row limit (0 uses the configured default)")

	return cmd
}

func runPreview(ctx context.Context, out io.Writer, configPath, uploadID string, opts tabular.Options, rows int) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if rows <= 0 {
		rows = cfg.Import.PreviewRows
	}

	svc := importer.NewService(st)
	headers, data, err := svc.Preview(ctx, uploadID, opts, rows)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.Join(headers, " | "))
	for _, row := range data {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = row[h]
		}
		fmt.Fprintln(out, strings.Join(cells, " | "))
	}
	return nil
}
