// Package config provides configuration management for dbarchive using Viper.
//
// # Configuration File
//
// The default configuration file is $XDG_CONFIG_HOME/dbarchive/config.yaml.
// The working directory is searched first. Every key can also be set through
// an environment variable with the DBARCHIVE_ prefix (DBARCHIVE_BACKUP_DIR).
//
//	backup_dir: /var/lib/dbarchive/backups
//	buffer_size: 10240
//	export_delay: 1s
//	database: /var/lib/dbarchive/data.db
//	temp_dir: ""          # empty means the OS temp directory
//
// # Loading Configuration
//
// Call [Init] once, then [Load]:
//
//	config.Init()
//	cfg, err := config.Load("")
//
// Load validates the result with [Validate] and reports every problem at
// once.
package config
