// Package version holds the build version, set with
// -ldflags "-X github.com/NielsdaWheelz/toth/internal/version.Version=...".
package version

// Version is the toth release.
var Version = "dev"
