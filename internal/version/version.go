// Package version exposes build metadata for the auditor binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Injected at build time via -ldflags "-X".
var (
	Number = "0.2.0-dev"
	Commit = ""
)

// Full describes the binary for the version subcommand. When no commit
// was injected it falls back to the VCS revision recorded in the build
// info, if any.
func Full() string {
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if commit == "" {
		return fmt.Sprintf("code-auditor %s", Number)
	}
	return fmt.Sprintf("code-auditor %s (%s)", Number, commit)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return setting.Value[:12]
		}
	}
	return ""
}
