// Package version holds build metadata, set with -ldflags at build time
package version

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExecName returns the name of the executable
func ExecName() string {
	name, err := os.Executable()
	if err != nil {
		return "requeue"
	}
	return filepath.Base(name)
}

// Version returns the tag, the commit hash or the module version, whichever
// is known
func Version() string {
	switch {
	case GitTag != "":
		return GitTag
	case GitHash != "":
		return GitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Compiler returns the go version, operating system and architecture
func Compiler() string {
	return runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
}
