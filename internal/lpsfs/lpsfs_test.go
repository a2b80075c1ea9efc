package lpsfs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

func TestInstallAndQuery(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "packages"))
	ctx := context.Background()

	ref := &pid.Ref{
		Name: "libfoo", Version: "1.0",
		Provides: pid.ProvidesSet{Features: []string{"libfoo.so.1"}, Files: []string{"/usr/lib/libfoo.so.1"}},
	}

	outcomes, err := l.InstallBatch(ctx, "/", []*pid.Ref{ref}, nil)
	if err != nil {
		t.Fatalf("InstallBatch: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != lps.OutcomeInstalled {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}

	installed, err := l.IsInstalled(ctx, "/", "libfoo", "", "", pid.SenseAny)
	if err != nil {
		t.Fatalf("IsInstalled: %v", err)
	}
	if !installed {
		t.Fatalf("expected libfoo to be installed")
	}

	owners, err := l.Query(ctx, "/", lps.Criterion{Kind: lps.Owns, Value: "/usr/lib/libfoo.so.1"})
	if err != nil {
		t.Fatalf("Query(Owns): %v", err)
	}
	if len(owners) != 1 || owners[0].Name != "libfoo" {
		t.Fatalf("unexpected owners: %+v", owners)
	}
}

func TestUpgradeReportsFromVersion(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "packages"))
	ctx := context.Background()

	v1 := &pid.Ref{Name: "app", Version: "1.0"}
	if _, err := l.InstallBatch(ctx, "/", []*pid.Ref{v1}, nil); err != nil {
		t.Fatalf("InstallBatch v1: %v", err)
	}

	v2 := &pid.Ref{Name: "app", Version: "2.0"}
	outcomes, err := l.InstallBatch(ctx, "/", []*pid.Ref{v2}, nil)
	if err != nil {
		t.Fatalf("InstallBatch v2: %v", err)
	}
	if outcomes[0].Kind != lps.OutcomeUpgraded || outcomes[0].FromVersion != "1.0" {
		t.Fatalf("expected upgrade from 1.0, got %+v", outcomes[0])
	}
}

func TestUninstallRemovesRecord(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "packages"))
	ctx := context.Background()

	ref := &pid.Ref{Name: "app", Version: "1.0"}
	if _, err := l.InstallBatch(ctx, "/", []*pid.Ref{ref}, nil); err != nil {
		t.Fatalf("InstallBatch: %v", err)
	}
	if _, err := l.UninstallBatch(ctx, "/", []*pid.Ref{ref}, nil); err != nil {
		t.Fatalf("UninstallBatch: %v", err)
	}

	installed, err := l.IsInstalled(ctx, "/", "app", "", "", pid.SenseAny)
	if err != nil {
		t.Fatalf("IsInstalled: %v", err)
	}
	if installed {
		t.Fatalf("expected app to no longer be installed")
	}
}
