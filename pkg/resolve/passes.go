package resolve

import (
	"context"

	"github.com/eazel/eazel-install/pkg/event"
	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// passB deduplicates: for every newly filled node, consult the dedupe map.
// If a canonical node already exists for this identity, rewrite every
// inbound dependency edge to point at the canonical node and drop the
// duplicate; otherwise register the node as canonical.
//
// Dedup must complete before the satisfaction pass because satisfaction
// checks rely on canonical identity.
func (r *Resolver) passB(frontier []*pid.Ref) {
	for _, node := range frontier {
		if node.ID.Empty() {
			// Not yet filled (e.g. CANNOT_OPEN before any ID was assigned);
			// nothing to dedup.
			continue
		}

		canon, exists := r.arena.canonicalFor(node.ID)
		if !exists {
			r.arena.registerCanonical(node.ID, node)
			continue
		}
		if canon == node {
			continue
		}

		// A duplicate: rewrite every inbound edge we know about to point at
		// canon instead, then retire node's own arena slot.
		for _, parent := range r.parentsOf(node) {
			for _, dep := range parent.Depends {
				if dep.Child == node {
					dep.Child = canon
				}
			}
			r.addParent(canon, parent)
		}
		r.arena.dropDuplicate(node)
	}
}

// passC is the satisfaction pass: for every dependency edge parent -> child,
// drop the edge if it is already satisfied, either by an explicit version
// constraint matching what's installed, or by some installed package
// providing/owning one of child's features. Edges that survive make child
// a member of the next iteration's frontier.
func (r *Resolver) passC(ctx context.Context, frontier []*pid.Ref) ([]*pid.Ref, error) {
	seenNext := make(map[*pid.Ref]bool)
	var next []*pid.Ref

	for _, node := range frontier {
		if node.Status.Terminal() {
			continue
		}
		if !node.Fill.Has(pid.MandatoryFill) {
			continue
		}

		var survivors []*pid.Dependency
		for _, dep := range node.Depends {
			r.Bus.Emit(event.DependencyCheck{Parent: node, Dep: dep})

			satisfied, err := r.dependencySatisfied(ctx, node, dep)
			if err != nil {
				return nil, err
			}
			if satisfied {
				if !dep.Child.ID.Empty() {
					r.satisfiedSet[dep.Child.ID] = struct{}{}
				}
				continue
			}

			survivors = append(survivors, dep)
			r.addParent(dep.Child, node)
			if !seenNext[dep.Child] {
				seenNext[dep.Child] = true
				r.arena.ensure(dep.Child)
				next = append(next, dep.Child)
			}
		}
		node.Depends = survivors

		if node.Status != pid.StatusCannotOpen && node.Status != pid.StatusSourceNotSupported {
			if len(survivors) == 0 {
				node.Status = pid.StatusResolved
			} else {
				node.Status = pid.StatusPartlyResolved
			}
		}
	}

	return next, nil
}

// dependencySatisfied implements the per-edge satisfaction logic,
// including the self-dependency and child-family drop rules and the
// SOFTCAT_BUG compatibility workaround.
func (r *Resolver) dependencySatisfied(ctx context.Context, parent *pid.Ref, dep *pid.Dependency) (bool, error) {
	// Self-dependency with a compatible version is dropped outright.
	if dep.Child == parent {
		return true, nil
	}

	// Child-family: a dependency that's really a sub-package of one of the
	// parent's own upgrade targets is not a real external requirement.
	if pid.RelatedAsChildFamily(parent, dep) {
		return true, nil
	}

	if dep.RequiredVersion != "" {
		installed, err := r.LPS.IsInstalled(ctx, r.Root, dep.Child.Name, dep.RequiredVersion, dep.RequiredRelease, dep.Sense)
		if err != nil {
			return false, err
		}
		return installed, nil
	}

	for _, f := range dep.Child.Provides.Features {
		if ok, err := r.anyInstalledProvides(ctx, f); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}
	for _, f := range dep.Child.Provides.Files {
		if ok, err := r.anyInstalledOwns(ctx, f); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}

	// No declared provides/files to check against (e.g. the dependency
	// names a bare feature with no other metadata): fall back to the
	// dependency's own name as the feature to probe.
	if len(dep.Child.Provides.Features) == 0 && len(dep.Child.Provides.Files) == 0 && dep.Child.Name != "" {
		if ok, err := r.anyInstalledProvides(ctx, dep.Child.Name); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
		if ok, err := r.anyInstalledOwns(ctx, dep.Child.Name); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}

		// PATCH_FOR_SOFTCAT_BUG compatibility workaround: if nobody provides
		// or owns the feature, but a package *named* the same as the
		// feature is installed in any version, treat it as satisfied anyway
		// and surface a diagnostic.
		installed, err := r.LPS.IsInstalled(ctx, r.Root, dep.Child.Name, "", "", pid.SenseAny)
		if err != nil {
			return false, err
		}
		if installed {
			r.Log.WithField("feature", dep.Child.Name).Warn("satisfying dependency via name-match workaround for known catalog bug")
			return true, nil
		}
	}

	return false, nil
}

func (r *Resolver) anyInstalledProvides(ctx context.Context, feature string) (bool, error) {
	found, err := r.LPS.Query(ctx, r.Root, lps.Criterion{Kind: lps.Provides, Value: feature})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (r *Resolver) anyInstalledOwns(ctx context.Context, path string) (bool, error) {
	found, err := r.LPS.Query(ctx, r.Root, lps.Criterion{Kind: lps.Owns, Value: path})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (r *Resolver) addParent(child, parent *pid.Ref) {
	for _, p := range r.parents[child] {
		if p == parent {
			return
		}
	}
	r.parents[child] = append(r.parents[child], parent)
}

func (r *Resolver) parentsOf(child *pid.Ref) []*pid.Ref {
	return r.parents[child]
}
