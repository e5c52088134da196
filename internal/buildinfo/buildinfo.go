// Package buildinfo exposes compile-time metadata of the helper binary.
package buildinfo

// The following variables are overridden via ldflags during release builds.
// Defaults cover local development builds.
var (
	// Version is the semantic version or git describe output of the binary.
	Version = "dev"

	// Commit is the git commit SHA baked into the binary.
	Commit = "none"

	// BuildDate records when the binary was built in UTC.
	BuildDate = "unknown"
)

// Summary returns a one-line description of the build.
func Summary() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ")"
}
