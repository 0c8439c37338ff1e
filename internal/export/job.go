package export

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/manifest"
	"github.com/thoreinstein/dbarchive/pkg/fileutil"
)

// ArchivePerm is the file mode of written archives.
const ArchivePerm = 0o600

// Dumper writes the data of one application.
type Dumper interface {
	Dump(ctx context.Context, appcode string, w io.Writer) error
}

// Job writes export archives: one data entry followed by the manifest.
type Job struct {
	dumper  Dumper
	version string
	logger  *slog.Logger
}

// NewJob creates a Job reading data from dumper.
func NewJob(dumper Dumper, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		dumper:  dumper,
		version: manifest.CurrentVersion,
		logger:  logger,
	}
}

// DataEntryName is the archive entry that holds the dump for appcode.
func DataEntryName(appcode string) string {
	return EscapeName(appcode) + ".json"
}

// Run writes the archive for appcode to path. The file appears atomically;
// on failure nothing is left behind.
func (j *Job) Run(ctx context.Context, path, appcode string) error {
	err := fileutil.AtomicCreate(path, ArchivePerm, func(w io.Writer) error {
		zw := zip.NewWriter(w)

		data, err := zw.Create(DataEntryName(appcode))
		if err != nil {
			return errors.Wrap(err, "creating data entry")
		}
		if err := j.dumper.Dump(ctx, appcode, data); err != nil {
			return errors.Wrap(err, "dumping data")
		}

		m, err := zw.Create(manifest.FileName)
		if err != nil {
			return errors.Wrap(err, "creating manifest entry")
		}
		if _, err := m.Write(manifest.Render(j.version)); err != nil {
			return errors.Wrap(err, "writing manifest")
		}

		return errors.Wrap(zw.Close(), "finishing archive")
	})
	if err != nil {
		return errors.Wrapf(err, "exporting %s", appcode)
	}

	j.logger.Debug("archive written", "path", path, "version", j.version)
	return nil
}
