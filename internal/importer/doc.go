// Package importer restores application data from an export archive.
//
// The archive is consumed as a stream of entries: an optional directory
// marker, the data entry, then the manifest. The manifest version is checked
// before any data reaches the Restorer. Temporary files never outlive an
// Import call unless ownership of the data file has passed to the Restorer.
package importer
