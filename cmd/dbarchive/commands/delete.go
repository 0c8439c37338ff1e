package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/dbarchive/internal/dbmanager"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/logging"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete [name]",
	Aliases: []string{"rm"},
	Short:   "Delete an export archive",
	Long: `Delete an export archive from the backup directory.

Without a name, pick the archive interactively. If the file cannot be
removed now, it is removed when dbarchive exits and the command still
reports the failure.`,
	Example: `  # Delete by name
  dbarchive delete 20240305-140709-myapp.zip

  # Pick interactively
  dbarchive delete

  See Also:
    dbarchive list - List archives`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

// pickArchive chooses one of names. It returns "" when the user aborts.
var pickArchive = func(names []string) (string, error) {
	idx, err := fuzzyfinder.Find(names, func(i int) string { return names[i] },
		fuzzyfinder.WithHeader("Select an export to delete"))
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", errors.Wrap(err, "interactive selection failed")
	}
	return names[idx], nil
}

// interactive reports whether delete may prompt for a name.
var interactive = func() bool {
	return logging.IsTTY(os.Stdin)
}

func runDelete(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	return runDeleteWithWriter(cmd.Context(), cmd.OutOrStdout(), name)
}

func runDeleteWithWriter(ctx context.Context, w io.Writer, name string) error {
	if name == "" && !interactive() {
		return errors.NewUserError(errors.ErrMissingName, "Pass the archive name, see: dbarchive list")
	}

	return withService(ctx, func(_ context.Context, svc *dbmanager.Service) error {
		if name == "" {
			names, err := svc.Exports()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(w, "No exports to delete.")
				return nil
			}
			name, err = pickArchive(names)
			if err != nil || name == "" {
				return err
			}
		}

		if err := svc.DeleteExport(name); err != nil {
			if errors.IsKind(err, errors.KindDelete) && !quiet {
				fmt.Fprintf(w, "%s %s will be removed on exit\n", yellow("Pending:"), name)
			}
			return err
		}
		if !quiet {
			fmt.Fprintf(w, "%s %s\n", green("Deleted:"), name)
		}
		return nil
	})
}
