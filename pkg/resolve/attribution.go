package resolve

import "github.com/eazel/eazel-install/pkg/pid"

// attributeFailures walks terminal-error nodes up their recorded parent
// edges to every toplevel root reachable from them, marking tree.Failed
// for each: a failure anywhere in a root's subtree marks that root as
// failed.
//
// A node can have more than one parent once Pass B has deduped a shared
// dependency; attribution marks every toplevel ancestor reached this way,
// not just one, since each of them genuinely depends on the broken node.
func (r *Resolver) attributeFailures(tree *Tree) {
	for _, node := range tree.All {
		if !isFailure(node.Status) {
			continue
		}
		visited := make(map[*pid.Ref]bool)
		r.markAncestors(node, tree, visited)
	}
}

// AttributeOne re-runs the failure walk starting from a single node rather
// than scanning the whole tree, for use after pkg/conflict records a new
// break against a node post-resolution: any break recorded there re-runs
// this walk against the affected toplevels.
func (r *Resolver) AttributeOne(node *pid.Ref, tree *Tree) {
	if !isFailure(node.Status) {
		return
	}
	r.markAncestors(node, tree, make(map[*pid.Ref]bool))
}

func isFailure(s pid.Status) bool {
	switch s {
	case pid.StatusCannotOpen, pid.StatusSourceNotSupported,
		pid.StatusDependencyFail, pid.StatusBreaksDependency, pid.StatusInvalid:
		return true
	default:
		return false
	}
}

func (r *Resolver) markAncestors(node *pid.Ref, tree *Tree, visited map[*pid.Ref]bool) {
	if visited[node] {
		return
	}
	visited[node] = true

	// An ancestor reached through a failed child takes DependencyFail: it
	// did not fail on its own terms, resolution just could not close its
	// subtree. The node that originated the walk already carries its own
	// terminal status (CannotOpen, BreaksDependency, ...) and isFailure
	// being true for it means this is a no-op.
	if !isFailure(node.Status) {
		node.Status = pid.StatusDependencyFail
	}
	if node.Toplevel {
		tree.Failed[node] = true
	}
	for _, parent := range r.parents[node] {
		r.markAncestors(parent, tree, visited)
	}
}
