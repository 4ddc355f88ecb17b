// Package config provides configuration management for syllabus-merge.
//
// Values are resolved by viper in this order: command-line flags,
// SYLLABUS_MERGE_* environment variables, an optional YAML config file, and
// the defaults below. The server binds to 0.0.0.0:5001 unless told otherwise.
package config
