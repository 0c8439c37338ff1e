package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/dbarchive/internal/dbstore"
)

// testEnv is an isolated CLI environment rooted in a temp dir.
type testEnv struct {
	root      string
	config    string
	backupDir string
	database  string
	tempDir   string
}

func setupCLI(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	env := &testEnv{
		root:      root,
		config:    filepath.Join(root, "config.yaml"),
		backupDir: filepath.Join(root, "backups"),
		database:  filepath.Join(root, "data.db"),
		tempDir:   filepath.Join(root, "tmp"),
	}
	require.NoError(t, os.Mkdir(env.tempDir, 0o700))

	yml := fmt.Sprintf("backup_dir: %s\ndatabase: %s\ntemp_dir: %s\nexport_delay: 0s\n",
		env.backupDir, env.database, env.tempDir)
	require.NoError(t, os.WriteFile(env.config, []byte(yml), 0o600))

	t.Chdir(root)

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	return env
}

// resetFlags restores every flag of the command tree to its default so
// state from one execution does not leak into the next.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// execute runs the root command with args and the test config.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) seed(t *testing.T, appcode string, ids ...string) {
	t.Helper()
	ctx := context.Background()
	db, err := dbstore.Open(ctx, e.database, nil)
	require.NoError(t, err)
	defer db.Close()

	for _, id := range ids {
		require.NoError(t, db.Put(ctx, appcode, dbstore.Record{
			Collection: "users",
			ID:         id,
			Body:       json.RawMessage(`{"id":"` + id + `"}`),
		}))
	}
}

func (e *testEnv) records(t *testing.T, appcode string) []dbstore.Record {
	t.Helper()
	ctx := context.Background()
	db, err := dbstore.Open(ctx, e.database, nil)
	require.NoError(t, err)
	defer db.Close()

	recs, err := db.Records(ctx, appcode)
	require.NoError(t, err)
	return recs
}

func (e *testEnv) archives(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.backupDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, de := range entries {
		names = append(names, de.Name())
	}
	return names
}
