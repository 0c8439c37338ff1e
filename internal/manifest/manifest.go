// Package manifest reads and writes the version manifest stored inside
// every export archive, and decides whether an archive can be imported.
package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

const (
	// FileName is the archive entry holding the manifest.
	FileName = "manifest.txt"

	// Floor is the oldest archive version that can be imported.
	Floor = "0.6.0"

	// CurrentVersion is written into new archives.
	CurrentVersion = "1.0.0"
)

var versionLine = regexp.MustCompile(`(?m)^version:[ \t]*(\S+)[ \t]*\r?$`)

// CheckVersion extracts the version from manifest text and checks it
// against Floor. Versions are compared as case-folded strings, so "0.10.0"
// sorts below "0.6.0".
func CheckVersion(text string) (string, error) {
	matches := versionLine.FindAllStringSubmatch(text, -1)
	if len(matches) != 1 {
		return "", errors.E(errors.KindFormat, "the manifest file does not contain a version number")
	}

	version := matches[0][1]
	if strings.Compare(strings.ToLower(version), strings.ToLower(Floor)) < 0 {
		return "", errors.Ef(errors.KindVersionIncompatible,
			"current version (%s) is not compatible with import file version (%s)", CurrentVersion, version)
	}
	return version, nil
}

// Render returns manifest text for version.
func Render(version string) []byte {
	return []byte(fmt.Sprintf("version: %s\n", version))
}
