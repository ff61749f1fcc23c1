// Package cli holds terminal helpers shared by the rtvoice commands.
//
// Output writes results as YAML or JSON, Paths locates per-user state such
// as log files, and StatusView renders the live session frame with
// lipgloss.
package cli
