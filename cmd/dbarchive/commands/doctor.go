package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/dbarchive/internal/archive"
	"github.com/thoreinstein/dbarchive/internal/config"
	"github.com/thoreinstein/dbarchive/internal/doctor"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/logging"
)

var (
	doctorJSON bool
	doctorAll  bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false,
		"show every check, including passed ones")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and archive issues",
	Long: `Run diagnostic checks on the backup directory, temp directory,
application database and existing archives.

Every archive is opened and its manifest is checked, so archives that would
be rejected by import are reported before anyone tries to restore them.

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	return runDoctorWithWriter(cmd, cmd.OutOrStdout())
}

func runDoctorWithWriter(cmd *cobra.Command, w io.Writer) error {
	cfg := loadedConfig
	logger := logging.FromContext(cmd.Context())

	runner := doctor.NewRunner(
		doctor.NewDirCheck(config.KeyBackupDir, cfg.BackupDir),
		doctor.NewDirCheck(config.KeyTempDir, cfg.TempDir),
		doctor.NewDatabaseCheck(cmd.Context(), cfg.Database),
		doctor.NewArchiveCheck(archive.NewStore(cfg.BackupDir, archive.WithLogger(logger))),
	)
	report := runner.Run()

	if err := outputDoctorReport(w, report); err != nil {
		return err
	}

	if report.HasErrors() {
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	}
	if report.HasWarnings() {
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func outputDoctorReport(w io.Writer, report *doctor.Report) error {
	if quiet {
		return nil
	}
	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON")
	}
	return outputDoctorText(w, report)
}

func outputDoctorText(w io.Writer, report *doctor.Report) error {
	hasOutput := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorAll && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if problem {
			if result.Category == "archive" {
				for _, name := range slices.Sorted(maps.Keys(result.Details)) {
					fmt.Fprintf(w, "  %s: %v\n", name, result.Details[name])
				}
			}
			if result.FixHint != "" {
				fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
			}
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
	return nil
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return green("✓")
	case doctor.SeverityInfo:
		return gray("ℹ")
	case doctor.SeverityWarning:
		return yellow("⚠")
	case doctor.SeverityError:
		return red("✗")
	default:
		return "?"
	}
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("doctor found warnings")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("doctor found errors")
