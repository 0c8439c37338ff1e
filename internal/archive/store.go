package archive

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/paths"
)

// Ext is the file extension of export archives.
const Ext = ".zip"

// Store is the backup directory.
type Store struct {
	dir    string
	logger *slog.Logger

	removeAll func(string) error
	remove    func(string) error

	mu       sync.Mutex
	deferred []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithRemoveFuncs replaces the forced and plain removal functions.
func WithRemoveFuncs(removeAll, remove func(string) error) Option {
	return func(s *Store) {
		if removeAll != nil {
			s.removeAll = removeAll
		}
		if remove != nil {
			s.remove = remove
		}
	}
}

// NewStore creates a Store rooted at dir. An empty dir selects
// paths.BackupDir().
func NewStore(dir string, opts ...Option) *Store {
	if dir == "" {
		dir = paths.BackupDir()
	}
	s := &Store{
		dir:       dir,
		logger:    slog.Default(),
		removeAll: os.RemoveAll,
		remove:    os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the backup directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of the archive called name.
func (s *Store) Path(name string) string {
	p := filepath.Join(s.dir, name)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// EnsureDir creates the backup directory if needed.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, paths.DefaultDirPerm); err != nil {
		s.logger.Error("creating backup directory", "dir", s.dir, "error", err)
		return errors.Ef(errors.KindDirectory, "unable to create backup dir %s", s.dir)
	}
	return nil
}

type entry struct {
	name    string
	modTime time.Time
}

// List returns archive file names, most recently modified first.
// Entries with the same modification time are ordered by name, descending.
func (s *Store) List() ([]string, error) {
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading backup directory %s", s.dir)
	}

	var entries []entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Ext) {
			continue
		}
		// Stat follows symlinks, so linked archives are listed too.
		info, err := os.Stat(filepath.Join(s.dir, de.Name()))
		if err != nil {
			// Removed since ReadDir, or a dangling link.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", de.Name())
		}
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, entry{name: de.Name(), modTime: info.ModTime()})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(b.name, a.name)
	})

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

// Delete removes the archive called name.
//
// If both the forced and the plain removal fail, the path is registered for
// removal at exit and a KindDelete error is returned. Callers should treat
// that error as "deletion postponed", not "nothing happened".
func (s *Store) Delete(name string) error {
	if !validName(name) {
		return notFound(name)
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}

	path := s.Path(name)
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(name)
	}
	if err != nil {
		return errors.Wrapf(err, "stat export %s", name)
	}
	if info.IsDir() {
		return notFound(name)
	}

	err = s.forceRemove(path)
	if err == nil {
		s.logger.Debug("export deleted", "name", name)
		return nil
	}
	s.logger.Warn("forced delete failed", "name", name, "error", err)

	if err = s.remove(path); err == nil || errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("export deleted", "name", name)
		return nil
	}
	s.logger.Warn("delete failed", "name", name, "error", err)

	s.deferDelete(path)
	return errors.Ef(errors.KindDelete, "unable to delete export, it will be deleted on exit: %s", name)
}

func (s *Store) forceRemove(path string) error {
	if err := s.removeAll(path); err != nil {
		return err
	}
	if _, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {
		return errors.Newf("%s still exists after removal", path)
	}
	return nil
}

func (s *Store) deferDelete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.deferred, path) {
		s.deferred = append(s.deferred, path)
	}
}

// Deferred returns the paths waiting for removal at exit.
func (s *Store) Deferred() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deferred)
}

// FlushDeferred removes every path registered by a failed Delete.
// Paths that are already gone are not errors. Paths that still fail stay
// registered.
func (s *Store) FlushDeferred() []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	var remaining []string
	for _, p := range s.deferred {
		err := os.Remove(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("deferred delete done", "path", p)
			continue
		}
		errs = append(errs, errors.Wrapf(err, "removing %s", p))
		remaining = append(remaining, p)
	}
	s.deferred = remaining
	return errs
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func notFound(name string) error {
	return errors.Ef(errors.KindNotFound, "export %s not found", name)
}
