package observability

import "time"

// Binary versioning for logs and metrics.
// Values are overwritten via -ldflags during build.
var (
	Version = "dev"  // release version
	Commit  = "none" // short commit
	Date    = ""     // ISO8601 UTC build time
)

// BuildInfo is what /api/version reports.
func BuildInfo() map[string]any {
	return map[string]any{
		"name":    "gridsync-logstream",
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"time":    time.Now().UTC(),
	}
}
