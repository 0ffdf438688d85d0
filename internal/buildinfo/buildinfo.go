package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

func setting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// Tags returns the GOFLAGS build tags recorded at compile time.
func Tags() string {
	return setting("-tags")
}

// Revision returns the VCS revision the binary was built from, if recorded.
func Revision() (rev string, modified bool) {
	return setting("vcs.revision"), setting("vcs.modified") == "true"
}

// VersionWithTags returns the version string and tags if present.
func VersionWithTags() string {
	return withTags(Version(), Tags())
}

// String describes the build for `gitstruct version`.
func String() string {
	rev, modified := Revision()
	return describe(Version(), Tags(), rev, modified)
}

func withTags(version, tags string) string {
	if tags == "" {
		return version
	}
	return fmt.Sprintf("%s (tags: %s)", version, tags)
}

func describe(version, tags, rev string, modified bool) string {
	out := "gitstruct " + withTags(version, tags)
	if rev == "" {
		return out
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if modified {
		rev += "-dirty"
	}
	return fmt.Sprintf("%s rev %s", out, rev)
}
