// Package paths resolves the filesystem locations dbarchive uses by default.
//
// Locations follow the XDG base directory conventions through
// [github.com/adrg/xdg]:
//
//	$XDG_CONFIG_HOME/dbarchive/config.yaml   configuration
//	$XDG_DATA_HOME/dbarchive/backups/        snapshot archives
//	$XDG_DATA_HOME/dbarchive/data.db         default SQLite database
//
// Every location can be overridden through configuration.
package paths
