package apt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is a Debian version string split into its three parts:
// [epoch:]upstream[-revision].
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#version
type Version struct {
	Epoch    int
	Upstream string
	Revision string
}

var errEmptyVersion = errors.New("empty version string")

// ParseVersion splits a version string into epoch, upstream version
// and revision. A missing epoch is 0 and a missing revision is "0",
// so "1.0" and "1.0-0" compare equal.
func ParseVersion(s string) (Version, error) {
	if strings.TrimSpace(s) == "" {
		return Version{}, errEmptyVersion
	}
	if strings.ContainsAny(s, " \t") {
		return Version{}, fmt.Errorf("version contains whitespace: %q", s)
	}
	v := Version{Revision: "0"}
	rest := s
	if i := strings.Index(rest, ":"); i >= 0 {
		epoch, err := strconv.Atoi(rest[:i])
		if err != nil || epoch < 0 {
			return Version{}, fmt.Errorf("epoch must be an unsigned integer: %q", s)
		}
		v.Epoch = epoch
		rest = rest[i+1:]
	}
	// the revision starts after the last hyphen, earlier hyphens
	// belong to the upstream version
	if i := strings.LastIndex(rest, "-"); i >= 0 {
		v.Revision = rest[i+1:]
		rest = rest[:i]
	}
	if rest == "" {
		return Version{}, fmt.Errorf("empty upstream version: %q", s)
	}
	v.Upstream = rest
	return v, nil
}

// ValidateVersion reports whether a version string fits the
// [epoch:]upstream[-revision] grammar.
func ValidateVersion(s string) error {
	_, err := ParseVersion(s)
	return err
}

func (v Version) String() string {
	s := v.Upstream
	if v.Epoch != 0 {
		s = strconv.Itoa(v.Epoch) + ":" + s
	}
	if v.Revision != "0" {
		s = s + "-" + v.Revision
	}
	return s
}

// Compare returns -1, 0 or 1 following the dpkg ordering: epochs
// compare numerically, then the upstream versions, then the revisions.
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		if v.Epoch < o.Epoch {
			return -1
		}
		return 1
	}
	if c := compareFragment(v.Upstream, o.Upstream); c != 0 {
		return c
	}
	return compareFragment(v.Revision, o.Revision)
}

// CompareVersions orders two raw version strings. Strings that do not
// fit the version grammar are ordered lexicographically so a single
// bad version can never abort a run; use ValidateVersion to surface
// those.
func CompareVersions(a, b string) int {
	va, errA := ParseVersion(a)
	vb, errB := ParseVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// charOrder assigns the dpkg sort weight of a character within a
// non-digit run: tilde sorts before everything including the end of
// the string, letters sort before other characters.
func charOrder(c byte) int {
	switch {
	case c == '~':
		return -1
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareFragment implements the dpkg sub-algorithm used for both the
// upstream version and the revision: alternating non-digit and digit
// runs, non-digit runs ordered by charOrder, digit runs ordered
// numerically with leading zeros insignificant.
func compareFragment(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			var ac, bc int
			if i < len(a) {
				ac = charOrder(a[i])
			}
			if j < len(b) {
				bc = charOrder(b[j])
			}
			if ac != bc {
				if ac < bc {
					return -1
				}
				return 1
			}
			if i < len(a) {
				i++
			}
			if j < len(b) {
				j++
			}
		}
		// compare the digit runs numerically without converting,
		// so arbitrarily long runs cannot overflow
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		firstDiff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			if firstDiff < 0 {
				return -1
			}
			return 1
		}
	}
	return 0
}
