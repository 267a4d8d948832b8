// Package buildinfo exposes version metadata stamped in at link time.
package buildinfo

import (
	"fmt"
	"runtime"
	"time"
)

// Stamped via -ldflags at build time; the zero values identify a
// from-source development build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var started = time.Now()

// Info returns version, build and runtime facts for the version
// endpoint and startup logging.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     Uptime().String(),
	}
}

// Uptime reports how long the process has been running, truncated to
// whole seconds.
func Uptime() time.Duration {
	return time.Since(started).Truncate(time.Second)
}

// String renders a one-line version banner.
func String() string {
	return fmt.Sprintf("niko %s (%s) built %s", Version, GitCommit, BuildTime)
}

// UserAgent identifies this agent on outbound HTTP requests.
func UserAgent() string {
	return fmt.Sprintf("niko-agent/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}
