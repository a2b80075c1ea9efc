package pid

import "strings"

// RelatedAsChildFamily implements the "child family" heuristic: dep is
// considered a sub-package of one of parent's upgrade targets when dep's
// name is a hyphen-prefixed extension of some ref in parent.Modifies, at
// that same ref's version.
//
// Ambiguity (more than one modifies-entry matching) resolves by preferring
// the longest matching name: a longer prefix match is always the more
// specific, and therefore more likely correct, relation.
func RelatedAsChildFamily(parent *Ref, dep *Dependency) bool {
	if parent == nil || dep == nil || dep.Child == nil {
		return false
	}

	var best *Ref
	for i := range parent.Modifies {
		m := parent.Modifies[i].Ref
		if m == nil {
			continue
		}
		if !isHyphenPrefix(m.Name, dep.Child.Name) {
			continue
		}
		if m.Version != dep.Child.Version {
			continue
		}
		if best == nil || len(m.Name) > len(best.Name) {
			best = m
		}
	}
	return best != nil
}

// isHyphenPrefix reports whether child is parent extended by a hyphen and
// at least one more path segment, e.g. "foo" is a hyphen-prefix of
// "foo-devel" but not of "foobar" or "foo".
func isHyphenPrefix(parent, child string) bool {
	if parent == "" || child == "" || parent == child {
		return false
	}
	prefix := parent + "-"
	return strings.HasPrefix(child, prefix) && len(child) > len(prefix)
}
