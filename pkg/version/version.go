// Package version holds the build version, overridden at link time via
// -ldflags "-X github.com/backscan/backscan/pkg/version.Version=...".
package version

// Version is the current backscan version.
var Version = "dev"
