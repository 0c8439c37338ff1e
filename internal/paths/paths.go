package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under each XDG base directory.
const AppName = "dbarchive"

// DefaultDirPerm is the permission for newly created directories (private).
const DefaultDirPerm = 0o700

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func DataHome() string {
	return xdg.DataHome
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// BackupDir returns the default snapshot directory.
func BackupDir() string {
	return filepath.Join(DataHome(), AppName, "backups")
}

// DatabasePath returns the default SQLite database path.
func DatabasePath() string {
	return filepath.Join(DataHome(), AppName, "data.db")
}

// EnsureDir creates the directory and any necessary parents.
// If perm is 0, DefaultDirPerm is used.
// It returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}
