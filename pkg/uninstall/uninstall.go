// Package uninstall computes the full safe removal set for a set of
// requested roots by walking both upward (what breaks if we remove this)
// and downward (what else becomes an orphan once we do).
package uninstall

import (
	"context"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// Traverser runs resolve_uninstall against an LPS.
type Traverser struct {
	LPS  lps.LPS
	Root string
}

// New returns a Traverser bound to an LPS and the filesystem root it
// should query against.
func New(l lps.LPS, root string) *Traverser {
	return &Traverser{LPS: l, Root: root}
}

// Result is the outcome of Resolve: the full set of packages safe to
// remove, and the subset of the requested roots that cannot be (with
// BreaksDependency status and attached BreakRecords).
type Result struct {
	Removals []*pid.Ref
	Failures []*pid.Ref
}

// Resolve runs the two traversals over roots and returns the final
// removal set: roots ∪ orphans \ failures.
func (t *Traverser) Resolve(ctx context.Context, roots []*pid.Ref) (*Result, error) {
	requested := make(map[string]*pid.Ref, len(roots))
	for _, r := range roots {
		requested[r.Name] = r
	}

	broken, err := t.walkUpward(ctx, roots)
	if err != nil {
		return nil, err
	}

	var failures []*pid.Ref
	var surviving []*pid.Ref
	for _, root := range roots {
		if reqs, ok := broken[root.Name]; ok && !subsetOfRequested(reqs, requested) {
			root.Status = pid.StatusBreaksDependency
			for _, b := range reqs {
				root.Breaks = append(root.Breaks, pid.BreakRecord{
					Kind: pid.BreakFeatureMissing, Broken: b,
				})
			}
			failures = append(failures, root)
			continue
		}
		surviving = append(surviving, root)
	}

	removalSet := make(map[string]*pid.Ref, len(surviving))
	for _, r := range surviving {
		removalSet[r.Name] = r
	}
	for _, root := range surviving {
		if err := t.walkDownward(ctx, root, removalSet); err != nil {
			return nil, err
		}
	}

	removals := make([]*pid.Ref, 0, len(removalSet))
	for _, r := range removalSet {
		removals = append(removals, r)
	}
	return &Result{Removals: removals, Failures: failures}, nil
}

// walkUpward finds, for every root, the transitive closure of installed
// packages that require it or anything that requires it.
func (t *Traverser) walkUpward(ctx context.Context, roots []*pid.Ref) (map[string][]*pid.Ref, error) {
	brokenByRoot := make(map[string][]*pid.Ref, len(roots))

	for _, root := range roots {
		seen := make(map[string]bool)
		working := []*pid.Ref{root}
		var broken []*pid.Ref

		for len(working) > 0 {
			cur := working[0]
			working = working[1:]

			requirers, err := t.requirersOf(ctx, cur)
			if err != nil {
				return nil, err
			}
			for _, req := range requirers {
				if seen[req.Name] {
					continue
				}
				seen[req.Name] = true
				broken = append(broken, req)
				working = append(working, req)
			}
		}
		brokenByRoot[root.Name] = broken
	}
	return brokenByRoot, nil
}

// requirersOf asks the LPS which installed packages require anything cur
// provides: its own name is always probed, then each declared feature.
func (t *Traverser) requirersOf(ctx context.Context, cur *pid.Ref) ([]*pid.Ref, error) {
	seen := make(map[string]*pid.Ref)

	probe := func(value string) error {
		found, err := t.LPS.Query(ctx, t.Root, lps.Criterion{Kind: lps.Requires, Value: value})
		if err != nil {
			return err
		}
		for _, f := range found {
			seen[f.Name] = f
		}
		return nil
	}

	if err := probe(cur.Name); err != nil {
		return nil, err
	}
	for _, f := range cur.Provides.Features {
		if err := probe(f); err != nil {
			return nil, err
		}
	}

	out := make([]*pid.Ref, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	return out, nil
}

// walkDownward walks root's requires-edges, adding a dependency to
// removalSet whenever every installed requirer of it is already in
// removalSet: the safe orphan computation.
func (t *Traverser) walkDownward(ctx context.Context, root *pid.Ref, removalSet map[string]*pid.Ref) error {
	for _, edge := range root.Depends {
		dep := edge.Child
		if dep == nil {
			continue
		}
		if _, already := removalSet[dep.Name]; already {
			continue
		}

		requirers, err := t.requirersOf(ctx, dep)
		if err != nil {
			return err
		}
		safe := true
		for _, req := range requirers {
			if _, inSet := removalSet[req.Name]; !inSet {
				safe = false
				break
			}
		}
		if !safe {
			continue
		}

		removalSet[dep.Name] = dep
		if err := t.walkDownward(ctx, dep, removalSet); err != nil {
			return err
		}
	}
	return nil
}

func subsetOfRequested(reqs []*pid.Ref, requested map[string]*pid.Ref) bool {
	for _, r := range reqs {
		if _, ok := requested[r.Name]; !ok {
			return false
		}
	}
	return true
}
