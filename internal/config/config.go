package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/paths"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DBARCHIVE"

// Configuration keys.
const (
	KeyBackupDir   = "backup_dir"
	KeyBufferSize  = "buffer_size"
	KeyExportDelay = "export_delay"
	KeyDatabase    = "database"
	KeyTempDir     = "temp_dir"
)

// Defaults.
const (
	// DefaultBufferSize is the transfer chunk size used when copying archive entries.
	DefaultBufferSize = 10 * 1024

	// DefaultExportDelay is how long an export waits before the dump starts.
	DefaultExportDelay = time.Second
)

// Config represents the top-level configuration structure.
type Config struct {
	BackupDir   string        `mapstructure:"backup_dir" yaml:"backup_dir"`
	BufferSize  int           `mapstructure:"buffer_size" yaml:"buffer_size"`
	ExportDelay time.Duration `mapstructure:"export_delay" yaml:"export_delay"`
	Database    string        `mapstructure:"database" yaml:"database"`
	TempDir     string        `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// Keys returns the settable configuration keys in display order.
func Keys() []string {
	return []string{KeyBackupDir, KeyBufferSize, KeyExportDelay, KeyDatabase, KeyTempDir}
}

// Init resets Viper and installs search paths, env binding and defaults.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths, in order of precedence
	viper.AddConfigPath(".")
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		viper.AddConfigPath(dir)
	} else {
		viper.AddConfigPath(paths.ConfigDir())
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault(KeyBackupDir, paths.BackupDir())
	viper.SetDefault(KeyBufferSize, DefaultBufferSize)
	viper.SetDefault(KeyExportDelay, DefaultExportDelay)
	viper.SetDefault(KeyDatabase, paths.DatabasePath())
	viper.SetDefault(KeyTempDir, "")
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file and a missing file is an error.
// If path is empty, it searches the default locations and falls back to defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load: defaults are fine
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(errors.Join(errs...), "validating config")
	}

	return &cfg, nil
}
