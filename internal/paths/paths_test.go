package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLocations(t *testing.T) {
	tests := []struct {
		name   string
		got    string
		base   string
		suffix string
	}{
		{"config file", ConfigFile(), ConfigHome(), filepath.Join(AppName, "config.yaml")},
		{"backup dir", BackupDir(), DataHome(), filepath.Join(AppName, "backups")},
		{"database", DatabasePath(), DataHome(), filepath.Join(AppName, "data.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.got, tt.base) {
				t.Errorf("%s = %q, want prefix %q", tt.name, tt.got, tt.base)
			}
			if !strings.HasSuffix(tt.got, tt.suffix) {
				t.Errorf("%s = %q, want suffix %q", tt.name, tt.got, tt.suffix)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory")
	}
	if info.Mode().Perm() != DefaultDirPerm {
		t.Errorf("perm = %o, want %o", info.Mode().Perm(), DefaultDirPerm)
	}

	// Idempotent
	if err := EnsureDir(dir, 0); err != nil {
		t.Errorf("second EnsureDir() error = %v", err)
	}
}
