package pid

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

// Sense is the comparison relation a Dependency requires between an
// installed version and the version named in the constraint.
type Sense int

// The senses a Dependency or LPS query can require.
const (
	SenseAny Sense = iota
	SenseEQ
	SenseGE
	SenseLE
	SenseLT
	SenseGT
)

func (s Sense) String() string {
	switch s {
	case SenseEQ:
		return "="
	case SenseGE:
		return ">="
	case SenseLE:
		return "<="
	case SenseLT:
		return "<"
	case SenseGT:
		return ">"
	default:
		return "any"
	}
}

// Ordering is the result of CompareVersions.
type Ordering int

// The three possible orderings.
const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
)

// CompareVersions implements RPM-style version comparison: the string is
// split into alternating runs of digits and non-digits (non-alphanumeric
// separators are dropped), numeric runs are compared numerically, and
// alphabetic runs are compared lexically. This intentionally does not use
// a semver-style dotted/3-component scheme: RPM version strings routinely
// look like "2.6.32", "1.0a", or carry a separate release field, none of
// which a strict dotted parser accepts.
//
// Unparseable or absent segments never produce an error; they simply
// compare as whichever string sorts first, matching the source behavior
// that version parsing never fails.
func CompareVersions(a, b string) Ordering {
	as, bs := splitSegments(a), splitSegments(b)

	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb segment
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}

		if o := sa.compare(sb); o != Equal {
			return o
		}
	}
	return Equal
}

// CompareReleases compares two RPM-style release strings the same way as
// CompareVersions; release is always the secondary sort key behind version.
func CompareReleases(a, b string) Ordering {
	return CompareVersions(a, b)
}

type segment struct {
	numeric bool
	text    string
	n       int64
}

func (s segment) compare(o segment) Ordering {
	if s.text == "" && o.text == "" {
		return Equal
	}
	// A missing segment sorts behind any present segment, mirroring rpmvercmp's
	// treatment of a version that simply has fewer components.
	if s.text == "" {
		return Less
	}
	if o.text == "" {
		return Greater
	}

	if s.numeric && o.numeric {
		switch {
		case s.n < o.n:
			return Less
		case s.n > o.n:
			return Greater
		default:
			return Equal
		}
	}

	// A numeric segment is always considered newer than an alphabetic one at
	// the same position, matching rpmvercmp's tilde/numeric-beats-alpha rule.
	if s.numeric != o.numeric {
		if s.numeric {
			return Greater
		}
		return Less
	}

	switch {
	case s.text < o.text:
		return Less
	case s.text > o.text:
		return Greater
	default:
		return Equal
	}
}

func splitSegments(v string) []segment {
	var segs []segment
	i := 0
	for i < len(v) {
		for i < len(v) && !isAlnum(v[i]) {
			i++
		}
		if i >= len(v) {
			break
		}
		start := i
		numeric := isDigit(v[i])
		for i < len(v) && isAlnum(v[i]) && isDigit(v[i]) == numeric {
			i++
		}
		text := v[start:i]
		seg := segment{numeric: numeric, text: text}
		if numeric {
			// Strip leading zeros the way rpmvercmp does before the numeric
			// comparison, but keep the original text for the alpha fallback.
			trimmed := strings.TrimLeft(text, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				seg.n = n
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// VersionSatisfies reports whether an installed (version, release) pair
// satisfies sense applied to a required (version, release) pair.
//
// When both version strings parse as well-formed dotted/semver versions,
// the comparison is done with github.com/Masterminds/semver, which has
// already-verified edge-case handling for that common case (most catalog
// entries and installed packages on a modern distro do use dotted
// versions). Anything that fails to parse that way - an alphabetic suffix,
// a bare RPM epoch:version-release string, etc. - falls back to
// CompareVersions/CompareReleases.
func VersionSatisfies(installedVersion, installedRelease string, sense Sense, requiredVersion, requiredRelease string) bool {
	if sense == SenseAny {
		return true
	}

	ord := compareFull(installedVersion, installedRelease, requiredVersion, requiredRelease)

	switch sense {
	case SenseEQ:
		return ord == Equal
	case SenseGE:
		return ord == Equal || ord == Greater
	case SenseLE:
		return ord == Equal || ord == Less
	case SenseLT:
		return ord == Less
	case SenseGT:
		return ord == Greater
	default:
		return false
	}
}

func compareFull(av, ar, bv, br string) Ordering {
	if sv, err1 := semver.NewVersion(av); err1 == nil {
		if sb, err2 := semver.NewVersion(bv); err2 == nil {
			switch sv.Compare(sb) {
			case -1:
				return Less
			case 1:
				return Greater
			default:
				if ar == "" && br == "" {
					return Equal
				}
				return CompareReleases(ar, br)
			}
		}
	}

	if o := CompareVersions(av, bv); o != Equal {
		return o
	}
	return CompareReleases(ar, br)
}
