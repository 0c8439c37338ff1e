package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/dbarchive/internal/dbmanager"
	"github.com/thoreinstein/dbarchive/internal/scheduler"
)

var exportWait bool

func init() {
	exportCmd.Flags().BoolVar(&exportWait, "wait", false,
		"write the archive before returning instead of after the export delay")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <appcode>",
	Short: "Export the data of an application",
	Long: `Export the data of an application into a zip archive in the backup
directory.

The archive name is printed immediately. The archive itself is written after
the configured export_delay; the command waits for it before exiting.`,
	Example: `  # Export myapp
  dbarchive export myapp

  # Skip the delay
  dbarchive export myapp --wait

  See Also:
    dbarchive list   - List archives
    dbarchive import - Restore from an archive`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	return runExportWithWriter(cmd.Context(), cmd.OutOrStdout(), args[0])
}

func runExportWithWriter(ctx context.Context, w io.Writer, appcode string) error {
	var opts []dbmanager.Option
	if exportWait {
		opts = append(opts, dbmanager.WithScheduler(scheduler.Immediate{}))
	}

	return withService(ctx, func(ctx context.Context, svc *dbmanager.Service) error {
		name, err := svc.ExportDB(ctx, appcode)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(w, "%s %s\n", green("Export:"), name)
		}
		return nil
	}, opts...)
}
