// Package version reports the build version of the binary.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is overridden at build time with -ldflags "-X .../pkg/version.Version=v1.2.3".
var Version = "v0.1.0-dev"

// String returns the canonical semantic version (build metadata dropped),
// or "dev" when Version is not a valid semantic version.
func String() string {
	v := strings.TrimSpace(Version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "dev"
	}
	return semver.Canonical(v)
}

// UserAgent is sent with every completion request.
func UserAgent() string {
	return "ai-chat/" + String()
}
