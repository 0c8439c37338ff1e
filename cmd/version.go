// Package cmd holds the build metadata of the dbarchive binary.
//
// Release builds set these with:
//
//	-ldflags "-X github.com/thoreinstein/dbarchive/cmd.Version=v1.2.3 ..."
package cmd

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// shortCommitLen matches the abbreviation git uses by default.
const shortCommitLen = 7

// Summary returns the one-line form printed by --version,
// for example "v1.2.3 (abc1234, 2024-05-01)".
func Summary() string {
	commit := Commit
	if len(commit) > shortCommitLen {
		commit = commit[:shortCommitLen]
	}
	return Version + " (" + commit + ", " + Date + ")"
}
