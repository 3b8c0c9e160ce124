package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fundbook-dev/fundbook/internal/config"
	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/store"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a fundbook workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd.OutOrStdout(), absDir)
		},
	}
	return cmd
}

func runInit(out io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	// Write fundbook.yaml.
	cfg := config.Default()
	if err := config.Save(filepath.Join(dir, "fundbook.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an example column mapping for the user to edit.
	if err := mapping.Save(filepath.Join(dir, "mapping.yaml"), mapping.Default()); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}

	// Create the database so later commands find the schema in place.
	st, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	fmt.Fprintf(out, "Initialized fundbook workspace at %s\n", dir)
	return nil
}
