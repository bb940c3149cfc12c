// Package version carries build identification, injected at link time via
// -ldflags "-X github.com/skyfence/radarlink/internal/version.Version=...".
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
