package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fundbook-dev/fundbook/internal/importer"
	"github.com/fundbook-dev/fundbook/internal/logging"
	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

func newCommitCommand(configPath *string) *cobra.Command {
	var flags tabularFlags
	var mappingPath string
	var fundsPath string
	var scope string
	var allowUnbalanced bool

	cmd := &cobra.Command{
		Use:   "commit <upload-id>",
		Short: "Persist an upload's lines, replacing any prior import for the scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(cmd.Context(), cmd.OutOrStdout(), *configPath, args[0],
				scope, flags.options(), mappingPath, fundsPath, allowUnbalanced)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&scope, "scope", "", "import scope, e.g. a period key (required)")
	_ = cmd.MarkFlagRequired("scope")
	cmd.Flags().StringVar(&mappingPath, "mapping", "mapping.yaml", "column mapping file")
	cmd.Flags().StringVar(&fundsPath, "funds", "funds.yaml", "confirmed fund dictionary file")
	cmd.Flags().BoolVar(&allowUnbalanced, "allow-unbalanced", false, "commit even when the net total exceeds tolerance")

	return cmd
}

// loadFunds reads the confirmed fund dictionary. A missing file is not an
// error: funds discovered during the commit are then created with blank
// names for later renaming.
func loadFunds(path string) (map[string]importer.FundInfo, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading funds file: %w", err)
	}
	var funds map[string]importer.FundInfo
	if err := yaml.Unmarshal(data, &funds); err != nil {
		return nil, fmt.Errorf("parsing funds file: %w", err)
	}
	return funds, nil
}

func runCommit(ctx context.Context, out io.Writer, configPath, uploadID, scope string,
	opts tabular.Options, mappingPath, fundsPath string, allowUnbalanced bool) error {

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := mapping.Load(mappingPath)
	if err != nil {
		return fmt.Errorf("loading mapping: %w", err)
	}

	funds, err := loadFunds(fundsPath)
	if err != nil {
		return err
	}

	tol, err := cfg.Tolerance()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level)

	svc := importer.NewService(st)
	svc.SetTolerance(tol)

	result, err := svc.Commit(ctx, importer.CommitParams{
		UploadID:        uploadID,
		Scope:           scope,
		Opts:            opts,
		Mapping:         m,
		Funds:           funds,
		AllowUnbalanced: allowUnbalanced,
	})
	if err != nil {
		logger.Error("import failed", "scope", scope, "upload", uploadID, "error", err)
		return err
	}

	logger.Info("import committed", "scope", scope, "upload", uploadID, "lines", result.ImportedLines)
	fmt.Fprintf(out, "Imported %d lines as %q (scope %s)\n", result.ImportedLines, result.Label, scope)
	return nil
}
