// Package version describes the running build and compares release versions.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Dev is the version reported by builds without release metadata.
const Dev = "dev"

// Info identifies a build. Fields are injected with -ldflags at release time.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Resolve fills missing fields from the module build information embedded
// by the Go toolchain.
func Resolve(info Info) Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
				if len(info.Commit) > 7 {
					info.Commit = info.Commit[:7]
				}
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// Current returns the version string, or Dev.
func (i Info) Current() string {
	if i.Version == "" {
		return Dev
	}
	return i.Version
}

// String renders "v1.2.3 (commit: abc1234, built: 2024-01-15)".
func (i Info) String() string {
	commit, date := i.Commit, i.Date
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Current(), commit, date)
}

// IsDev reports whether v names a development build rather than a release.
func IsDev(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return v == "" || v == Dev || isCommitHash(v)
}

// Compare returns 1, 0 or -1 as v1 is newer than, equal to, or older than
// v2. Development builds sort before every release.
func Compare(v1, v2 string) int {
	dev1, dev2 := IsDev(v1), IsDev(v2)
	switch {
	case dev1 && dev2:
		return 0
	case dev1:
		return -1
	case dev2:
		return 1
	}

	p1, p2 := parse(Normalize(v1)), parse(Normalize(v2))
	for i := 0; i < 3; i++ {
		if p1[i] != p2[i] {
			if p1[i] > p2[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// IsNewer reports whether candidate is a newer release than current.
func IsNewer(current, candidate string) bool {
	return Compare(candidate, current) > 0
}

// Normalize strips whitespace, leading v's, and pre-release or build suffixes.
func Normalize(v string) string {
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	for {
		trimmed := strings.TrimLeft(strings.TrimSpace(v), "v")
		if trimmed == v {
			return v
		}
		v = trimmed
	}
}

func parse(v string) [3]int {
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		_, _ = fmt.Sscanf(part, "%d", &out[i])
	}
	return out
}

// isCommitHash matches 7 to 40 hex characters with at least one letter, so
// purely numeric versions are not mistaken for hashes.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
