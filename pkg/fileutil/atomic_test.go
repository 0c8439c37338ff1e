package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

func TestAtomicCreate_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.zip")

	err := AtomicCreate(path, 0o600, func(w io.Writer) error {
		_, err := io.Copy(w, strings.NewReader("payload"))
		return err
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assertOnlyEntries(t, dir, "export.zip")
}

func TestAtomicCreate_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.zip")
	boom := errors.New("dump failed")

	err := AtomicCreate(path, 0o600, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "target should not exist")
	assertOnlyEntries(t, dir)
}

func TestAtomicCreate_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "export.zip")

	err := AtomicCreate(path, 0o600, func(io.Writer) error { return nil })
	assert.Error(t, err)
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestAtomicWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	v := map[string]any{"backup_dir": "/srv/backups", "buffer_size": 4096}
	require.NoError(t, AtomicWriteYAML(path, v, 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "backup_dir: /srv/backups\n")
	assert.Contains(t, string(got), "buffer_size: 4096\n")
}

func TestAtomicWriteYAML_Unmarshalable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := AtomicWriteYAML(path, map[string]any{"fn": func() {}}, 0o600)
	assert.Error(t, err)
}

func assertOnlyEntries(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, want, names)
}
