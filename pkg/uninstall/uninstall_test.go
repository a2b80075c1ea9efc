package uninstall

import (
	"context"
	"testing"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

type fakeLPS struct {
	requirers map[string][]*pid.Ref
}

func (f fakeLPS) Query(_ context.Context, _ string, c lps.Criterion) ([]*pid.Ref, error) {
	if c.Kind == lps.Requires {
		return f.requirers[c.Value], nil
	}
	return nil, nil
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

func TestResolveUpwardFailsOnExternalRequirer(t *testing.T) {
	root := &pid.Ref{Name: "libfoo"}
	external := &pid.Ref{Name: "app-using-libfoo"}

	tr := New(fakeLPS{requirers: map[string][]*pid.Ref{"libfoo": {external}}}, "/")
	res, err := tr.Resolve(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0] != root {
		t.Fatalf("expected root to fail, got failures=%v removals=%v", res.Failures, res.Removals)
	}
	if root.Status != pid.StatusBreaksDependency {
		t.Fatalf("expected root status BreaksDependency, got %v", root.Status)
	}
}

func TestResolveDownwardOrphanRemoval(t *testing.T) {
	orphan := &pid.Ref{Name: "libbar"}
	root := &pid.Ref{
		Name:    "app",
		Depends: []*pid.Dependency{{Child: orphan}},
	}

	tr := New(fakeLPS{requirers: map[string][]*pid.Ref{
		"app":    nil,
		"libbar": {root},
	}}, "/")
	res, err := tr.Resolve(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("expected no failures, got %v", res.Failures)
	}
	names := map[string]bool{}
	for _, r := range res.Removals {
		names[r.Name] = true
	}
	if !names["app"] || !names["libbar"] {
		t.Fatalf("expected both app and libbar in removal set, got %v", res.Removals)
	}
}

func TestResolveDownwardKeepsSharedDependency(t *testing.T) {
	shared := &pid.Ref{Name: "libshared"}
	root := &pid.Ref{Name: "app", Depends: []*pid.Dependency{{Child: shared}}}
	otherConsumer := &pid.Ref{Name: "otherapp"}

	tr := New(fakeLPS{requirers: map[string][]*pid.Ref{
		"app":       nil,
		"libshared": {root, otherConsumer},
	}}, "/")
	res, err := tr.Resolve(context.Background(), []*pid.Ref{root})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, r := range res.Removals {
		if r.Name == "libshared" {
			t.Fatalf("libshared is still required by otherapp, must not be removed")
		}
	}
}
