// Package archive manages the directory of exported database archives.
//
// A Store lists archives newest first, deletes them by file name, and keeps
// a registry of archives that could not be removed so they can be retried
// when the process exits. The directory is created on first use.
package archive
