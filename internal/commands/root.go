package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fundbook-dev/fundbook/internal/buildinfo"
	"github.com/fundbook-dev/fundbook/internal/config"
	"github.com/fundbook-dev/fundbook/internal/store"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "fundbook",
		Short:   "Trial balance import and validation for fund accounting",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fundbook.yaml", "config file path")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newUploadCommand(&configPath))
	rootCmd.AddCommand(newUploadsCommand(&configPath))
	rootCmd.AddCommand(newPreviewCommand(&configPath))
	rootCmd.AddCommand(newValidateCommand(&configPath))
	rootCmd.AddCommand(newCommitCommand(&configPath))

	return rootCmd
}

// openStore loads the config at path and opens its database.
func openStore(configPath string) (*config.Config, *store.SQLite, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, st, nil
}

// tabularFlags are the source-format flags shared by preview, validate
// and commit.
type tabularFlags struct {
	delimiter string
	headerRow int
	noHeaders bool
}

func (f *tabularFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "field separator")
	cmd.Flags().IntVar(&f.headerRow, "header-row", 1, "1-based line number of the header row")
	cmd.Flags().BoolVar(&f.noHeaders, "no-headers", false, "treat the header row as data with synthesized column names")
}

func (f *tabularFlags) options() tabular.Options {
	return tabular.Options{
		Delimiter:  f.delimiter,
		HeaderRow:  f.headerRow,
		HasHeaders: !f.noHeaders,
	}
}
