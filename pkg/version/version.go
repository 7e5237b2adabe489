// Package version carries build information stamped in by the linker.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build information, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

const revisionKey = "vcs.revision"

// InitBinaryVersion fills the fields the linker left unset from the module
// build info embedded by the go command.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch {
		case setting.Key == revisionKey && Commit == "<unknown>":
			Commit = setting.Value
		case setting.Key == "vcs.time" && Date == "<unknown>":
			Date = setting.Value
		}
	}
}

// String formats the build information for the version command.
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", binary, Version, Commit, Date)
}
