package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/dbarchive/internal/dbmanager"
	"github.com/thoreinstein/dbarchive/internal/errors"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List export archives",
	Long: `List the export archives in the backup directory, most recently
modified first.`,
	Example: `  # List archives
  dbarchive list

  # Output as JSON
  dbarchive list --json

  See Also:
    dbarchive delete - Delete an archive`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// archiveOutput represents a single archive in JSON output.
type archiveOutput struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(cmd.Context(), cmd.OutOrStdout())
}

func runListWithWriter(ctx context.Context, w io.Writer) error {
	return withService(ctx, func(_ context.Context, svc *dbmanager.Service) error {
		names, err := svc.Exports()
		if err != nil {
			return err
		}

		archives := make([]archiveOutput, 0, len(names))
		for _, name := range names {
			info, err := os.Stat(svc.Store().Path(name))
			if err != nil {
				// Deleted since listing.
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return errors.Wrapf(err, "stat %s", name)
			}
			archives = append(archives, archiveOutput{
				Name:     name,
				Size:     info.Size(),
				Modified: info.ModTime(),
			})
		}

		if listJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(archives)
		}
		return outputListTabular(w, svc.Store().Dir(), archives)
	})
}

func outputListTabular(w io.Writer, dir string, archives []archiveOutput) error {
	if len(archives) == 0 {
		fmt.Fprintf(w, "No exports in %s\n", dir)
		fmt.Fprintln(w, gray("Create one with: dbarchive export <appcode>"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", bold("NAME"), bold("SIZE"), bold("MODIFIED"))
	for _, a := range archives {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, humanize.Bytes(uint64(a.Size)), humanize.Time(a.Modified))
	}
	return tw.Flush()
}
