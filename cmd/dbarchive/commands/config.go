package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/dbarchive/internal/config"
	"github.com/thoreinstein/dbarchive/internal/editor"
	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/paths"
	"github.com/thoreinstein/dbarchive/pkg/fileutil"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dbarchive configuration",
	Long: `Manage dbarchive configuration stored in ~/.config/dbarchive/config.yaml.

Without a subcommand, lists all configuration values. Every key can also be
set through the environment, e.g. DBARCHIVE_BACKUP_DIR.`,
	Example: `  # List all configuration
  dbarchive config

  # Get a specific value
  dbarchive config get backup_dir

  # Set a value
  dbarchive config set export_delay 5s

See Also: dbarchive config list`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Get a single configuration value by key.`,
	Example: `  # Get the backup directory
  dbarchive config get backup_dir

See Also: dbarchive config set, dbarchive config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write it to the config file.

The resulting configuration is validated before it is written.`,
	Example: `  # Use a different backup directory
  dbarchive config set backup_dir /var/backups/dbarchive

  # Copy archives in 64 KiB chunks
  dbarchive config set buffer_size 65536

See Also: dbarchive config get, dbarchive config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	Example: `  # List all configuration
  dbarchive config list

See Also: dbarchive config get, dbarchive config set`,
	RunE: runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, then nano or vi. A missing config file is
created with the current values first. The file is validated after the
editor exits.`,
	Example: `  # Open config in default editor
  dbarchive config edit

  # Open with a specific editor
  EDITOR=nano dbarchive config edit

See Also: dbarchive config list`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viper.GetString(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := checkKey(key); err != nil {
		return err
	}

	viper.Set(key, value)

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return errors.NewUserError(errors.Wrapf(err, "invalid value for %s", key), "")
	}
	if errs := config.Validate(&cfg); len(errs) > 0 {
		return errors.NewUserError(errors.Join(errs...), "")
	}

	path := configPath()
	if err := writeConfig(path, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	return writeConfigList(cmd.OutOrStdout())
}

func writeConfigList(w io.Writer) error {
	data, err := yaml.Marshal(settingsMap(config.Keys()))
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	_, err = w.Write(data)
	return err
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
		if err := fileutil.AtomicWriteYAML(path, settingsMap(config.Keys()), 0o600); err != nil {
			return errors.Wrap(err, "writing config file")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Location: %s\n", path)
	if err := editor.Open(cmd.Context(), path); err != nil {
		return err
	}

	config.Init()
	if _, err := config.Load(path); err != nil {
		return errors.NewConfigError(err)
	}
	return nil
}

func checkKey(key string) error {
	if !slices.Contains(config.Keys(), key) {
		err := errors.Newf("unknown config key %q (valid: %s)", key, strings.Join(config.Keys(), ", "))
		return errors.NewUserError(err, "Run: dbarchive config list")
	}
	return nil
}

// configPath returns the file config set writes to.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}

// settingsMap returns the current values of keys with their native types.
func settingsMap(keys []string) map[string]any {
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		switch k {
		case config.KeyBufferSize:
			m[k] = viper.GetInt(k)
		case config.KeyExportDelay:
			m[k] = viper.GetDuration(k).String()
		default:
			m[k] = viper.GetString(k)
		}
	}
	return m
}

// writeConfig writes the keys present in the config file plus changed.
func writeConfig(path, changed string) error {
	var keys []string
	for _, k := range config.Keys() {
		if k == changed || viper.InConfig(k) {
			keys = append(keys, k)
		}
	}

	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, settingsMap(keys), 0o600); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
