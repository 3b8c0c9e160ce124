package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fundbook-dev/fundbook/internal/model"
)

func newUploadCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Store a trial balance export for later validation and commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), cmd.OutOrStdout(), *configPath, args[0])
		},
	}
	return cmd
}

func runUpload(ctx context.Context, out io.Writer, configPath, filePath string) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filePath, err)
	}

	up, err := st.SaveUpload(ctx, model.Upload{
		Filename: filepath.Base(filePath),
		Content:  string(data),
	})
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}

	fmt.Fprintln(out, up.ID)
	return nil
}

func newUploadsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List stored uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUploads(cmd.Context(), cmd.OutOrStdout(), *configPath)
		},
	}
	return cmd
}

func runUploads(ctx context.Context, out io.Writer, configPath string) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ups, err := st.ListUploads(ctx)
	if err != nil {
		return fmt.Errorf("listing uploads: %w", err)
	}

	for _, up := range ups {
		fmt.Fprintf(out, "%s  %s  %s\n", up.ID, up.CreatedAt.Format("2006-01-02 15:04"), up.Filename)
	}
	return nil
}
