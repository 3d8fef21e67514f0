package cli

import (
	"runtime/debug"
	"strings"
)

// devVersion is reported when neither an injected version nor build
// metadata is available.
const devVersion = "dev"

var readBuildInfo = debug.ReadBuildInfo

// resolvedVersion picks the string shown by --version: an injected release
// version wins, then the module version stamped by `go install`, then the
// vcs revision of a source build.
func resolvedVersion(injected string) string {
	injected = strings.TrimSpace(injected)
	if injected != "" && injected != devVersion {
		return injected
	}

	if info, ok := readBuildInfo(); ok && info != nil {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
		if rev := vcsRevision(info.Settings); rev != "" {
			return rev
		}
	}

	if injected != "" {
		return injected
	}
	return devVersion
}

// vcsRevision returns a short commit hash, suffixed when the worktree was
// dirty at build time.
func vcsRevision(settings []debug.BuildSetting) string {
	revision := ""
	dirty := false
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(setting.Value)
		case "vcs.modified":
			dirty = strings.EqualFold(strings.TrimSpace(setting.Value), "true")
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if revision != "" && dirty {
		revision += "-dirty"
	}
	return revision
}
