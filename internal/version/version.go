// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in output and the HTTP User-Agent
const Name = "cw-inspect"

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo returns the full version information
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Platform returns os/arch
func (i Info) Platform() string {
	return i.OS + "/" + i.Arch
}

// GetVersion returns just the version string
func GetVersion() string {
	return Version
}

// UserAgent returns the User-Agent header value, e.g. "cw-inspect/1.2.0"
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, Version)
}
