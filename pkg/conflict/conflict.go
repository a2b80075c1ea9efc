// Package conflict checks a fully-resolved dependency tree for file and
// feature conflicts, both internal to the tree and against the
// already-installed package set, once the resolver has produced a tree
// with no unresolved nodes left.
package conflict

import (
	"context"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// Analyzer runs the three ordered conflict checks against a resolved tree.
// It takes the tree's flattened node list directly rather than importing
// pkg/resolve, so the two packages don't form an import cycle: the
// resolver depends on nothing here, and callers pass resolve.Tree.All in.
type Analyzer struct {
	LPS  lps.LPS
	Root string
}

// New returns an Analyzer bound to an LPS and the filesystem root it
// should query against.
func New(l lps.LPS, root string) *Analyzer {
	return &Analyzer{LPS: l, Root: root}
}

// Attributor re-runs failure attribution for a single node. Callers pass
// resolve.Resolver.AttributeOne bound to the tree being checked; Check
// only needs to re-run attribution, not the whole resolve algorithm, so
// it is injected as a narrow function rather than a package import.
type Attributor func(node *pid.Ref)

// Check runs the three ordered checks over all, recording
// BreakRecords on the offending refs and calling attribute for every node
// that acquires a new break, so the caller's failure-attribution walk
// re-runs against the newly affected toplevels.
func (a *Analyzer) Check(ctx context.Context, all []*pid.Ref, attribute Attributor) error {
	if err := a.checkInternalFileConflicts(all, attribute); err != nil {
		return err
	}
	if err := a.checkInstalledFileConflicts(ctx, all, attribute); err != nil {
		return err
	}
	if err := a.checkFeatureConsistency(ctx, all, attribute); err != nil {
		return err
	}
	return nil
}

// checkInternalFileConflicts finds two packages in the same tree claiming
// the same file path.
func (a *Analyzer) checkInternalFileConflicts(all []*pid.Ref, attribute Attributor) error {
	claims := make(map[string]*pid.Ref)
	for _, ref := range all {
		for _, f := range ref.Provides.Files {
			owner, ok := claims[f]
			if !ok {
				claims[f] = ref
				continue
			}
			if owner == ref {
				continue
			}
			recordFileConflict(ref, owner, f)
			recordFileConflict(owner, ref, f)
			attribute(ref)
			attribute(owner)
		}
	}
	return nil
}

// checkInstalledFileConflicts finds a new package claiming a file already
// owned by an installed package that isn't being upgraded to cover it.
func (a *Analyzer) checkInstalledFileConflicts(ctx context.Context, all []*pid.Ref, attribute Attributor) error {
	inTree := make(map[string]*pid.Ref, len(all))
	for _, ref := range all {
		inTree[ref.Name] = ref
	}

	for _, ref := range all {
		for _, f := range ref.Provides.Files {
			owners, err := a.LPS.Query(ctx, a.Root, lps.Criterion{Kind: lps.Owns, Value: f})
			if err != nil {
				return err
			}
			for _, owner := range owners {
				upgrader, upgrading := inTree[owner.Name]
				if !upgrading {
					recordFileConflict(ref, owner, f)
					attribute(ref)
					continue
				}
				if !providesFile(upgrader, f) {
					recordFeatureMissing(upgrader, owner, f)
					attribute(upgrader)
				}
			}
		}
	}
	return nil
}

// checkFeatureConsistency requires a package upgrading another to keep
// providing every feature the old version did, unless nothing outside
// the tree still requires it.
func (a *Analyzer) checkFeatureConsistency(ctx context.Context, all []*pid.Ref, attribute Attributor) error {
	inTree := make(map[string]bool, len(all))
	for _, ref := range all {
		inTree[ref.Name] = true
	}

	for _, p := range all {
		for _, mod := range p.Modifies {
			old := mod.Ref
			if old == nil {
				continue
			}
			for _, f := range old.Provides.Features {
				if hasFeature(p, f) {
					continue
				}
				requirers, err := a.LPS.Query(ctx, a.Root, lps.Criterion{Kind: lps.Requires, Value: f})
				if err != nil {
					return err
				}
				var outside []*pid.Ref
				for _, req := range requirers {
					if !inTree[req.Name] {
						outside = append(outside, req)
					}
				}
				for _, req := range outside {
					recordFeatureMissing(p, req, f)
					attribute(p)
				}
			}
		}
	}
	return nil
}

func providesFile(ref *pid.Ref, f string) bool {
	for _, x := range ref.Provides.Files {
		if x == f {
			return true
		}
	}
	return false
}

func hasFeature(ref *pid.Ref, f string) bool {
	for _, x := range ref.Provides.Features {
		if x == f {
			return true
		}
	}
	for _, x := range ref.Provides.Files {
		if x == f {
			return true
		}
	}
	return false
}

func recordFileConflict(ref, broken *pid.Ref, file string) {
	ref.Status = pid.StatusBreaksDependency
	ref.Breaks = append(ref.Breaks, pid.BreakRecord{
		Kind: pid.BreakFileConflict, Broken: broken, File: file,
	})
}

func recordFeatureMissing(ref, broken *pid.Ref, feature string) {
	ref.Status = pid.StatusBreaksDependency
	ref.Breaks = append(ref.Breaks, pid.BreakRecord{
		Kind: pid.BreakFeatureMissing, Broken: broken, Feature: feature,
	})
}
