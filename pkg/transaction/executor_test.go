package transaction

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eazel/eazel-install/pkg/event"
	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

type fakeLPS struct{}

func (fakeLPS) Query(context.Context, string, lps.Criterion) ([]*pid.Ref, error) { return nil, nil }
func (fakeLPS) IsInstalled(context.Context, string, string, string, string, pid.Sense) (bool, error) {
	return false, nil
}
func (f fakeLPS) InstallBatch(_ context.Context, _ string, refs []*pid.Ref, _ []lps.InstallFlag) ([]lps.Outcome, error) {
	out := make([]lps.Outcome, len(refs))
	for i, r := range refs {
		out[i] = lps.Outcome{Ref: r, Kind: lps.OutcomeInstalled}
	}
	return out, nil
}
func (fakeLPS) UninstallBatch(_ context.Context, _ string, refs []*pid.Ref, _ []lps.UninstallFlag) ([]lps.Outcome, error) {
	out := make([]lps.Outcome, len(refs))
	for i, r := range refs {
		out[i] = lps.Outcome{Ref: r, Kind: lps.OutcomeRemoved}
	}
	return out, nil
}

func TestInstallWritesJournal(t *testing.T) {
	dir := t.TempDir()
	fetcher := FetcherFunc(func(_ context.Context, ref *pid.Ref) (string, error) {
		p := filepath.Join(dir, ref.Name+".pkg")
		if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p, nil
	})

	ex := New(fakeLPS{}, event.New(nil), nil, fetcher, "/", dir, nil)
	refs := []*pid.Ref{{Name: "app", Version: "1.0"}}

	res, err := ex.Install(context.Background(), refs, nil, nil, 100)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if res.Cancelled {
		t.Fatalf("unexpected cancellation")
	}
	if res.JournalPath == "" {
		t.Fatalf("expected a journal path")
	}

	j, err := ReadFile(res.JournalPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(j.Entries) != 1 || j.Entries[0].Ref.Name != "app" {
		t.Fatalf("unexpected journal entries: %+v", j.Entries)
	}
}

func TestPreflightCancel(t *testing.T) {
	dir := t.TempDir()
	fetcher := FetcherFunc(func(_ context.Context, ref *pid.Ref) (string, error) {
		return filepath.Join(dir, ref.Name), nil
	})
	bus := event.New(nil)
	bus.Subscribe(event.ObserverFunc(func(ev event.Event) event.Decision {
		if _, ok := ev.(event.PreflightCheck); ok {
			return event.Cancel
		}
		return event.Continue
	}))

	ex := New(fakeLPS{}, bus, nil, fetcher, "/", dir, nil)
	refs := []*pid.Ref{{Name: "app", Version: "1.0"}}

	res, err := ex.Install(context.Background(), refs, nil, nil, 1)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !res.Cancelled {
		t.Fatalf("expected the run to be cancelled")
	}
}

func TestJournalRotatesExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "transaction-5.xml")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	j := &Journal{}
	j.Add(Entry{Ref: &pid.Ref{Name: "foo", Version: "1.0"}})
	path, err := WriteFile(dir, 5, j)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if path != target {
		t.Fatalf("expected rotated write to land at %q, got %q", target, path)
	}
	if _, err := os.Stat(filepath.Join(dir, "transaction-5.xml.1")); err != nil {
		t.Fatalf("expected old journal rotated to .1: %v", err)
	}
}
