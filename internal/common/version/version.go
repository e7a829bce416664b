// Package version exposes build information injected through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Version information - set at build time via ldflags:
//
//	-X github.com/obentoo/versioneye-slack/internal/common/version.Version=1.2.0
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("versioneye-slack %s\n  commit: %s\n  built: %s\n  go: %s\n  os/arch: %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent returns the User-Agent sent with API requests
func UserAgent() string {
	return "versioneye-slack/" + Version
}
