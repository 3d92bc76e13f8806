// Package build holds version metadata injected at link time via
// -ldflags "-X go.trai.ch/watchdag/internal/build.Version=...".
package build

// Version, Commit, and Date default to "dev"/"unknown" for local builds and
// are overwritten by the release build's ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
