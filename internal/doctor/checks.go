package doctor

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"

	"github.com/thoreinstein/dbarchive/internal/archive"
	"github.com/thoreinstein/dbarchive/internal/dbstore"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/logging"
	"github.com/thoreinstein/dbarchive/internal/manifest"
	"github.com/thoreinstein/dbarchive/pkg/fileutil"
	"github.com/thoreinstein/dbarchive/pkg/zipstream"
)

// DirCheck verifies that a directory is usable for writing.
type DirCheck struct {
	name string
	path string
}

var _ Check = (*DirCheck)(nil)

// NewDirCheck creates a check named name for the directory at path.
// An empty path checks os.TempDir().
func NewDirCheck(name, path string) *DirCheck {
	if path == "" {
		path = os.TempDir()
	}
	return &DirCheck{name: name, path: path}
}

// Name returns the unique identifier for this check.
func (c *DirCheck) Name() string { return c.name }

// Category returns the grouping for this check.
func (c *DirCheck) Category() string { return "filesystem" }

// Run executes the directory check.
func (c *DirCheck) Run() *CheckResult {
	details := map[string]any{"path": c.path}

	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &CheckResult{
			Status:  SeverityInfo,
			Message: "directory does not exist yet and will be created on first use",
			Details: details,
		}
	}
	if err != nil {
		return &CheckResult{Status: SeverityError, Message: fmt.Sprintf("cannot stat directory: %v", err), Details: details}
	}
	if !info.IsDir() {
		return &CheckResult{
			Status:  SeverityError,
			Message: "path exists but is not a directory",
			Details: details,
			FixHint: "remove the file or point the setting at a directory",
		}
	}

	f, err := os.CreateTemp(c.path, ".dbarchive-doctor-*")
	if err != nil {
		return &CheckResult{
			Status:  SeverityError,
			Message: "directory is not writable",
			Details: details,
			FixHint: "chmod u+w " + c.path,
		}
	}
	f.Close()
	os.Remove(f.Name())

	details["permissions"] = fmt.Sprintf("%04o", info.Mode().Perm())
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o007 != 0 {
		return &CheckResult{
			Status:  SeverityWarning,
			Message: "directory is accessible to other users",
			Details: details,
			FixHint: "chmod 700 " + c.path,
		}
	}

	return &CheckResult{Status: SeverityPass, Message: "directory is writable", Details: details}
}

// DatabaseCheck verifies that the application database opens.
type DatabaseCheck struct {
	ctx  context.Context
	path string
}

var _ Check = (*DatabaseCheck)(nil)

// NewDatabaseCheck creates a check for the database at path.
func NewDatabaseCheck(ctx context.Context, path string) *DatabaseCheck {
	return &DatabaseCheck{ctx: ctx, path: path}
}

// Name returns the unique identifier for this check.
func (c *DatabaseCheck) Name() string { return "database" }

// Category returns the grouping for this check.
func (c *DatabaseCheck) Category() string { return "database" }

// Run executes the database check.
func (c *DatabaseCheck) Run() *CheckResult {
	details := map[string]any{"path": c.path}

	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return &CheckResult{
			Status:  SeverityInfo,
			Message: "database does not exist yet and will be created on first use",
			Details: details,
		}
	}

	db, err := dbstore.Open(c.ctx, c.path, logging.NewDiscard())
	if err != nil {
		return &CheckResult{
			Status:  SeverityError,
			Message: fmt.Sprintf("cannot open database: %v", err),
			Details: details,
			FixHint: "check the database setting: dbarchive config get database",
		}
	}
	db.Close()

	return &CheckResult{Status: SeverityPass, Message: "database opens", Details: details}
}

// ArchiveCheck verifies the layout and manifest of every archive in a store.
type ArchiveCheck struct {
	store *archive.Store
}

var _ Check = (*ArchiveCheck)(nil)

// NewArchiveCheck creates a check for the archives in store.
func NewArchiveCheck(store *archive.Store) *ArchiveCheck {
	return &ArchiveCheck{store: store}
}

// Name returns the unique identifier for this check.
func (c *ArchiveCheck) Name() string { return "archives" }

// Category returns the grouping for this check.
func (c *ArchiveCheck) Category() string { return "archive" }

// Run executes the archive check.
func (c *ArchiveCheck) Run() *CheckResult {
	names, err := c.store.List()
	if err != nil {
		return &CheckResult{Status: SeverityError, Message: err.Error()}
	}
	if len(names) == 0 {
		return &CheckResult{Status: SeverityInfo, Message: "no archives found"}
	}

	invalid := map[string]any{}
	for _, name := range names {
		if err := VerifyArchive(c.store.Path(name)); err != nil {
			invalid[name] = err.Error()
		}
	}

	if len(invalid) > 0 {
		return &CheckResult{
			Status:  SeverityWarning,
			Message: fmt.Sprintf("%d of %d archives cannot be imported", len(invalid), len(names)),
			Details: invalid,
			FixHint: "delete them with: dbarchive delete <name>",
		}
	}
	return &CheckResult{Status: SeverityPass, Message: fmt.Sprintf("%d archives valid", len(names))}
}

// VerifyArchive checks that the zip file at path has a non-empty data entry
// followed by a manifest with an importable version. It reads the manifest
// but not the data.
func VerifyArchive(path string) error {
	r, err := zipstream.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	e, err := r.Next()
	if err == nil && e.IsDir {
		e, err = r.Next()
	}
	if errors.Is(err, io.EOF) {
		return errors.New("no data entry")
	}
	if err != nil {
		return err
	}
	if e.Size == 0 {
		return errors.New("data entry is empty")
	}

	if _, err := r.Next(); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("no manifest entry")
		}
		return err
	}

	text, err := io.ReadAll(io.LimitReader(r, fileutil.MaxFileSize))
	if err != nil {
		return errors.Wrap(err, "reading manifest")
	}
	_, err = manifest.CheckVersion(string(text))
	return err
}
