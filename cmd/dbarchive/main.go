// Package main is the entry point for the dbarchive CLI.
package main

import (
	"os"

	"github.com/thoreinstein/dbarchive/cmd/dbarchive/commands"
)

func main() {
	os.Exit(commands.Execute())
}
