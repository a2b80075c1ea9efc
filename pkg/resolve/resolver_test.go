package resolve

import (
	"context"
	"testing"

	"github.com/eazel/eazel-install/pkg/catalog"
	"github.com/eazel/eazel-install/pkg/event"
	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// fakeCatalog answers GetInfo from a fixed table keyed by package name,
// simulating the behavior of a real remote softcat client for tests.
// calls counts GetInfo invocations per name so tests can assert the
// at-most-once-per-identity guarantee.
type fakeCatalog struct {
	byName map[string]*pid.Ref
	calls  map[string]int
}

func (c *fakeCatalog) GetInfo(_ context.Context, ref *pid.Ref) (*pid.Ref, error) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[ref.Name]++

	filled, ok := c.byName[ref.Name]
	if !ok {
		return nil, &catalog.Error{Kind: catalog.NotFound, Query: ref.Name}
	}
	out := *filled
	return &out, nil
}

// fakeLPS reports nothing installed, so every dependency edge survives
// Pass C untouched; that is enough to exercise resolution's fixed-point
// loop without a real package database backing it.
type fakeLPS struct{}

func (fakeLPS) Query(context.Context, string, lps.Criterion) ([]*pid.Ref, error) { return nil, nil }
func (fakeLPS) IsInstalled(context.Context, string, string, string, string, pid.Sense) (bool, error) {
	return false, nil
}
func (fakeLPS) InstallBatch(context.Context, string, []*pid.Ref, []lps.InstallFlag) ([]lps.Outcome, error) {
	return nil, nil
}
func (fakeLPS) UninstallBatch(context.Context, string, []*pid.Ref, []lps.UninstallFlag) ([]lps.Outcome, error) {
	return nil, nil
}

func leafRef(name, version string) *pid.Ref {
	return &pid.Ref{
		Name: name, Version: version,
		ID:   pid.ID(name + "-" + version),
		Fill: pid.MandatoryFill,
	}
}

func TestResolveInstallChain(t *testing.T) {
	leaf := leafRef("libfoo", "1.0")
	mid := &pid.Ref{
		Name: "app", Version: "2.0", ID: "app-2.0", Fill: pid.MandatoryFill,
		Depends: []*pid.Dependency{{Child: &pid.Ref{Name: "libfoo"}}},
	}

	cat := &fakeCatalog{byName: map[string]*pid.Ref{
		"app":    mid,
		"libfoo": leaf,
	}}

	r := New(cat, fakeLPS{}, event.New(nil), nil, "/")
	root := pid.MakeRef("app", "", "i386", "")

	tree, err := r.ResolveInstall(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("ResolveInstall: %v", err)
	}
	if len(tree.FailedRoots()) != 0 {
		t.Fatalf("expected no failed roots, got %v", tree.FailedRoots())
	}
	if root.Status != pid.StatusResolved && root.Status != pid.StatusPartlyResolved {
		t.Fatalf("root status = %v", root.Status)
	}
	if len(root.Depends) != 1 || root.Depends[0].Child.Name != "libfoo" {
		t.Fatalf("expected root to depend on libfoo, got %+v", root.Depends)
	}
}

func TestResolveInstallNotFoundAttributesFailure(t *testing.T) {
	cat := &fakeCatalog{byName: map[string]*pid.Ref{}}
	r := New(cat, fakeLPS{}, event.New(nil), nil, "/")
	root := pid.MakeRef("missing", "", "i386", "")

	tree, err := r.ResolveInstall(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("ResolveInstall: %v", err)
	}
	if len(tree.FailedRoots()) != 1 || tree.FailedRoots()[0] != root {
		t.Fatalf("expected root to be marked failed, got %v", tree.FailedRoots())
	}
	if root.Status != pid.StatusCannotOpen {
		t.Fatalf("root status = %v, want CannotOpen", root.Status)
	}
}

func TestResolveInstallDedupSharedDependency(t *testing.T) {
	shared := leafRef("libshared", "1.0")
	a := &pid.Ref{
		Name: "pkga", Version: "1.0", ID: "pkga-1.0", Fill: pid.MandatoryFill,
		Depends: []*pid.Dependency{{Child: &pid.Ref{Name: "libshared"}}},
	}
	b := &pid.Ref{
		Name: "pkgb", Version: "1.0", ID: "pkgb-1.0", Fill: pid.MandatoryFill,
		Depends: []*pid.Dependency{{Child: &pid.Ref{Name: "libshared"}}},
	}

	cat := &fakeCatalog{byName: map[string]*pid.Ref{
		"pkga":      a,
		"pkgb":      b,
		"libshared": shared,
	}}

	r := New(cat, fakeLPS{}, event.New(nil), nil, "/")
	rootA := pid.MakeRef("pkga", "", "i386", "")
	rootB := pid.MakeRef("pkgb", "", "i386", "")

	tree, err := r.ResolveInstall(context.Background(), []*pid.Ref{rootA, rootB})
	if err != nil {
		t.Fatalf("ResolveInstall: %v", err)
	}
	if len(tree.FailedRoots()) != 0 {
		t.Fatalf("expected no failures, got %v", tree.FailedRoots())
	}
	if rootA.Depends[0].Child != rootB.Depends[0].Child {
		t.Fatalf("expected both roots to share the canonical libshared node after dedup")
	}
	if got := cat.calls["libshared"]; got != 1 {
		t.Fatalf("GetInfo called %d times for libshared, want exactly 1", got)
	}
}

func TestResolveInstallDependencyFailurePropagatesToToplevel(t *testing.T) {
	app := &pid.Ref{
		Name: "app", Version: "1.0", ID: "app-1.0", Fill: pid.MandatoryFill,
		Depends: []*pid.Dependency{{Child: &pid.Ref{Name: "libmissing"}}},
	}
	cat := &fakeCatalog{byName: map[string]*pid.Ref{"app": app}}

	r := New(cat, fakeLPS{}, event.New(nil), nil, "/")
	root := pid.MakeRef("app", "", "i386", "")

	tree, err := r.ResolveInstall(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("ResolveInstall: %v", err)
	}
	if len(tree.FailedRoots()) != 1 || tree.FailedRoots()[0] != root {
		t.Fatalf("expected root to be marked failed, got %v", tree.FailedRoots())
	}
	if root.Status != pid.StatusDependencyFail {
		t.Fatalf("root status = %v, want DependencyFail (its own fetch succeeded; libmissing's didn't)", root.Status)
	}
}
