package resolve

import "github.com/eazel/eazel-install/pkg/pid"

// Tree is the output of ResolveInstall: the ordered list of roots the
// caller requested, plus the full transitive dependency graph reached from
// them, plus a success flag per root.
//
// Tree exclusively owns every *pid.Ref it contains; dependency edges
// (pid.Ref.Depends) are non-owning references into that same set.
type Tree struct {
	Roots []*pid.Ref
	// All holds every node reachable from Roots, canonical and deduped.
	All []*pid.Ref
	// Failed maps a toplevel root to true if its subtree contains at least
	// one node with terminal-error status.
	Failed map[*pid.Ref]bool
}

// FailedRoots returns the roots whose subtree failed, in Roots order.
func (t *Tree) FailedRoots() []*pid.Ref {
	var out []*pid.Ref
	for _, r := range t.Roots {
		if t.Failed[r] {
			out = append(out, r)
		}
	}
	return out
}

// SucceededRoots returns the roots that resolved cleanly, in Roots order.
func (t *Tree) SucceededRoots() []*pid.Ref {
	var out []*pid.Ref
	for _, r := range t.Roots {
		if !t.Failed[r] {
			out = append(out, r)
		}
	}
	return out
}

// Subtree returns every node in t.All reachable from root by following
// Depends edges, used to render a per-toplevel failure tree of packages
// with per-node status codes.
func (t *Tree) Subtree(root *pid.Ref) []*pid.Ref {
	seen := make(map[*pid.Ref]bool)
	var out []*pid.Ref
	var walk func(r *pid.Ref)
	walk = func(r *pid.Ref) {
		if r == nil || seen[r] {
			return
		}
		seen[r] = true
		out = append(out, r)
		for _, d := range r.Depends {
			walk(d.Child)
		}
	}
	walk(root)
	return out
}
