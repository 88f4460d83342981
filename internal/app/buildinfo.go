package app

// Build information populated via -ldflags at build time.
var (
    // BuildVersion is the semantic version of the built binary.
    BuildVersion = "0.0.0-dev"
    // BuildCommit is the VCS commit SHA associated with the build.
    BuildCommit  = "unknown"
    // BuildDate is the ISO-8601 timestamp of the build.
    BuildDate    = "unknown"
)

// BuildInfo is the build metadata reported by the health endpoint.
type BuildInfo struct {
    Version string `json:"version"`
    Commit  string `json:"commit"`
    Date    string `json:"date"`
}

// CurrentBuild returns the linked-in build metadata.
func CurrentBuild() BuildInfo {
    return BuildInfo{Version: BuildVersion, Commit: BuildCommit, Date: BuildDate}
}
