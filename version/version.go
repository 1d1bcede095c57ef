// Package version reports the engine build version, recorded in every run
// artifact so results can be traced back to the binary that produced them.
// Version variables can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/dcs-research/simengine/version.version=1.0.0"
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	// devVersion is the default version when not set via ldflags.
	devVersion = "dev"
	// shortCommitLen is the length of the short commit hash.
	shortCommitLen = 7
	// vcsRevisionKey is the build info key for the git commit.
	vcsRevisionKey = "vcs.revision"
	// vcsModifiedKey is the build info key for dirty state.
	vcsModifiedKey = "vcs.modified"
)

// Build-time variables, overridable with -ldflags.
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// Version returns the engine version string. Falls back to module build
// info when no version was set via ldflags.
func Version() string {
	if version != devVersion {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return devVersion
}

// Commit returns the short git commit hash, from ldflags or VCS build info.
func Commit() string {
	if gitCommit != "" {
		return gitCommit
	}
	return commitFromBuildInfo()
}

func commitFromBuildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == vcsRevisionKey && setting.Value != "" {
			return setting.Value[:min(shortCommitLen, len(setting.Value))]
		}
	}
	return ""
}

func dirtyFromBuildInfo() bool {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return false
	}
	for _, setting := range info.Settings {
		if setting.Key == vcsModifiedKey && setting.Value == "true" {
			return true
		}
	}
	return false
}

// String returns a human-readable version block for CLI-style output.
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "simengine version %s", Version())
	if commit := Commit(); commit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", commit)
	}
	if buildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", buildDate)
	}
	return b.String()
}

// BuildInfo returns version details as structured slog attributes, for
// inclusion in log messages and run metadata.
func BuildInfo() []any {
	attrs := []any{"version", Version()}
	if commit := Commit(); commit != "" {
		attrs = append(attrs, "commit", commit)
	}
	if gitCommit == "" && dirtyFromBuildInfo() {
		attrs = append(attrs, "dirty", true)
	}
	if buildDate != "" {
		attrs = append(attrs, "built", buildDate)
	}
	return attrs
}
