// Package version reports build information.
package version

import "runtime"

// Build information set via ldflags at compile time, e.g.
// -X langsite/internal/version.Version=1.2.0 -X langsite/internal/version.Commit=abc123.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the build information served by /api/version.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}
