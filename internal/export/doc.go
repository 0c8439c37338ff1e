// Package export schedules database exports into the backup directory.
//
// Export picks a timestamped archive name and returns it immediately; the
// archive itself is written later by a background Job. Callers that need the
// file to exist on return use scheduler.Immediate.
package export
