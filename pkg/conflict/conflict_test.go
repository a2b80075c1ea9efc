package conflict

import (
	"context"
	"testing"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

type fakeLPS struct {
	owners    map[string][]*pid.Ref
	requirers map[string][]*pid.Ref
}

func (f fakeLPS) Query(_ context.Context, _ string, c lps.Criterion) ([]*pid.Ref, error) {
	switch c.Kind {
	case lps.Owns:
		return f.owners[c.Value], nil
	case lps.Requires:
		return f.requirers[c.Value], nil
	default:
		return nil, nil
	}
}
func (fakeLPS) IsInstalled(context.Context, string, string, string, string, pid.Sense) (bool, error) {
	return false, nil
}
func (fakeLPS) InstallBatch(context.Context, string, []*pid.Ref, []lps.InstallFlag) ([]lps.Outcome, error) {
	return nil, nil
}
func (fakeLPS) UninstallBatch(context.Context, string, []*pid.Ref, []lps.UninstallFlag) ([]lps.Outcome, error) {
	return nil, nil
}

func TestCheckInternalFileConflict(t *testing.T) {
	a := &pid.Ref{Name: "a", Provides: pid.ProvidesSet{Files: []string{"/usr/bin/x"}}}
	b := &pid.Ref{Name: "b", Provides: pid.ProvidesSet{Files: []string{"/usr/bin/x"}}}

	an := New(fakeLPS{}, "/")
	var attributed []*pid.Ref
	err := an.Check(context.Background(), []*pid.Ref{a, b}, func(n *pid.Ref) { attributed = append(attributed, n) })
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if a.Status != pid.StatusBreaksDependency || b.Status != pid.StatusBreaksDependency {
		t.Fatalf("expected both packages marked BreaksDependency, got a=%v b=%v", a.Status, b.Status)
	}
	if len(a.Breaks) != 1 || a.Breaks[0].Kind != pid.BreakFileConflict {
		t.Fatalf("expected a FileConflict break on a, got %+v", a.Breaks)
	}
}

func TestCheckInstalledFileConflictNotUpgrading(t *testing.T) {
	installed := &pid.Ref{Name: "oldpkg"}
	newpkg := &pid.Ref{Name: "newpkg", Provides: pid.ProvidesSet{Files: []string{"/etc/conf"}}}

	an := New(fakeLPS{owners: map[string][]*pid.Ref{"/etc/conf": {installed}}}, "/")
	var attributed []*pid.Ref
	err := an.Check(context.Background(), []*pid.Ref{newpkg}, func(n *pid.Ref) { attributed = append(attributed, n) })
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if newpkg.Status != pid.StatusBreaksDependency {
		t.Fatalf("expected newpkg marked BreaksDependency, got %v", newpkg.Status)
	}
	if len(newpkg.Breaks) != 1 || newpkg.Breaks[0].Broken != installed {
		t.Fatalf("expected break recorded against installed, got %+v", newpkg.Breaks)
	}
}

func TestCheckFeatureConsistencyOutsideRequirer(t *testing.T) {
	old := &pid.Ref{Name: "libfoo-old", Provides: pid.ProvidesSet{Features: []string{"libfoo.so.1"}}}
	newVer := &pid.Ref{
		Name:     "libfoo",
		Provides: pid.ProvidesSet{Features: []string{"libfoo.so.2"}},
		Modifies: []pid.Modification{{Ref: old, Status: pid.ModUpgraded}},
	}
	outsideReq := &pid.Ref{Name: "consumer"}

	an := New(fakeLPS{requirers: map[string][]*pid.Ref{"libfoo.so.1": {outsideReq}}}, "/")
	var attributed []*pid.Ref
	err := an.Check(context.Background(), []*pid.Ref{newVer}, func(n *pid.Ref) { attributed = append(attributed, n) })
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if newVer.Status != pid.StatusBreaksDependency {
		t.Fatalf("expected newVer marked BreaksDependency, got %v", newVer.Status)
	}
	if len(newVer.Breaks) != 1 || newVer.Breaks[0].Kind != pid.BreakFeatureMissing || newVer.Breaks[0].Broken != outsideReq {
		t.Fatalf("expected FeatureMissing break against outsideReq, got %+v", newVer.Breaks)
	}
}
