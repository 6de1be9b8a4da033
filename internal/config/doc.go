// Package config holds the run configuration threaded into every component.
//
// A Config starts from Default, is optionally overlaid with a file
// (YAML with unknown keys rejected, or CUE), and is finally overlaid with
// command-line flags by the CLI. Durations are written as Go duration
// strings ("10s", "2m").
package config
