package params

import "fmt"

const (
	VersionMajor = 1  // Major version component of the current release
	VersionMinor = 0  // Minor version component of the current release
	VersionPatch = 0  // Patch version component of the current release
	VersionMeta  = "" // Version metadata to append to the version string
)

// GitCommit is set at build time with -ldflags "-X .../cmd/params.GitCommit=..."
var GitCommit = ""

var Version = func() string {
	v := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if VersionMeta != "" {
		v += "-" + VersionMeta
	}
	return v
}()

// VersionWithCommit appends the short commit hash when one was linked in.
func VersionWithCommit() string {
	if len(GitCommit) >= 8 {
		return Version + "-" + GitCommit[:8]
	}
	return Version
}
