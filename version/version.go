package version

import (
	"runtime"
	"runtime/debug"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/vsariola/polysynth/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short VCS revision of the build, "-dirty" if the tree was
// modified. Empty when the binary was not built from a repository.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value[:min(7, len(setting.Value))]
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision != "" && modified {
		return revision + "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

// String describes the build, e.g. "polysynth v0.1.0 (go1.26.0)".
func String() string {
	return "polysynth " + VersionOrHash + " (" + runtime.Version() + ")"
}
