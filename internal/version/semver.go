package version

import (
	"strconv"
	"strings"
)

// isNewer reports whether candidate is a strictly newer release than current.
// Unparseable versions compare as not-newer: a malformed tag must never nag
// the user to "upgrade".
func isNewer(candidate, current string) bool {
	cand, ok := parseSemver(candidate)
	if !ok {
		return false
	}
	cur, ok := parseSemver(current)
	if !ok {
		return false
	}
	return compareSemver(cand, cur) > 0
}

type semver struct {
	major, minor, patch int
	prerelease          string
}

// parseSemver accepts v1.2.3 or 1.2.3, with an optional -prerelease suffix.
func parseSemver(s string) (semver, bool) {
	s = strings.TrimPrefix(s, "v")
	core, pre, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return semver{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return semver{}, false
		}
		nums[i] = n
	}
	return semver{major: nums[0], minor: nums[1], patch: nums[2], prerelease: pre}, true
}

// compareSemver returns -1, 0, or 1. A prerelease sorts before its release
// (1.2.3-beta < 1.2.3); two prereleases compare lexically, which is enough
// for the dotted numeric tags we actually publish.
func compareSemver(a, b semver) int {
	if c := compareInt(a.major, b.major); c != 0 {
		return c
	}
	if c := compareInt(a.minor, b.minor); c != 0 {
		return c
	}
	if c := compareInt(a.patch, b.patch); c != 0 {
		return c
	}
	switch {
	case a.prerelease == b.prerelease:
		return 0
	case a.prerelease == "":
		return 1
	case b.prerelease == "":
		return -1
	case a.prerelease < b.prerelease:
		return -1
	default:
		return 1
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
