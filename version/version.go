package version

// Set at build time via -ldflags "-X github.com/fpsboost/fpsboost/version.Version=..."
var (
	Version = "0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)
