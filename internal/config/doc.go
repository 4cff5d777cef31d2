// Package config defines the fixed settings the release pipeline runs with and
// provides helpers to load, validate and expand them.
//
// Defaults are hard-coded; an optional YAML file can override individual fields.
// The Config type holds the backup folder, the remote secure-copy targets, the
// release descriptor location and the argv vectors of the external commands.
package config
