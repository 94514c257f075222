package utils

import (
	"fmt"
	"runtime/debug"
)

// Set at link time with -ldflags "-X github.com/papercomputeco/docqa/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// BuildInfo describes the running docqa binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"buildtime"`
}

// Build reports the linked build metadata. Binaries built with go install
// carry no ldflags, so their module version and vcs revision are used
// instead.
func Build() BuildInfo {
	info := BuildInfo{Version: Version, Sha: Sha, Buildtime: Buildtime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Sha == "HEAD" {
				info.Sha = s.Value
			}
		case "vcs.time":
			if info.Buildtime == "dev" {
				info.Buildtime = s.Value
			}
		}
	}
	return info
}

func (b BuildInfo) String() string {
	sha := b.Sha
	if len(sha) > 12 {
		sha = sha[:12]
	}
	return fmt.Sprintf("%s (%s, built %s)", b.Version, sha, b.Buildtime)
}
