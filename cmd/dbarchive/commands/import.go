package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/dbarchive/internal/dbmanager"
	"github.com/thoreinstein/dbarchive/internal/errors"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <appcode> <file.zip>",
	Short: "Restore application data from an export archive",
	Long: `Restore the data of an application from an export archive.

The archive must contain the data entry followed by a manifest whose version
is 0.6.0 or newer. The existing data of the application is replaced in one
transaction.`,
	Example: `  # Restore myapp from the backup directory
  dbarchive import myapp 20240305-140709-myapp.zip

  # Restore from an uploaded file
  dbarchive import myapp ./upload.zip

  See Also:
    dbarchive export - Create an archive`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	return runImportWithWriter(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
}

func runImportWithWriter(ctx context.Context, w io.Writer, appcode, path string) error {
	return withService(ctx, func(ctx context.Context, svc *dbmanager.Service) error {
		// A bare archive name that is not in the working directory refers
		// to the backup directory.
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && filepath.Base(path) == path {
			path = svc.Store().Path(path)
		}
		if err := svc.ImportFile(ctx, appcode, path); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(w, "%s %s from %s\n", green("Imported:"), appcode, path)
		}
		return nil
	})
}
