// Package editor launches the user's preferred text editor.
package editor

import (
	"context"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

// Detect returns the editor command line to use.
// Fallback chain: $EDITOR, $VISUAL, nano, vi.
func Detect() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}

// Open runs the editor on path attached to the process terminal and waits
// for it to exit. The editor command line may carry arguments, e.g.
// EDITOR="code --wait".
func Open(ctx context.Context, path string) error {
	words, err := shellquote.Split(Detect())
	if err != nil {
		return errors.Wrap(err, "parsing editor command")
	}
	if len(words) == 0 {
		return errors.New("editor command is empty")
	}

	cmd := exec.CommandContext(ctx, words[0], append(words[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", words[0])
	}
	return nil
}
