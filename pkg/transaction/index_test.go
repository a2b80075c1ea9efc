package transaction

import (
	"path/filepath"
	"testing"
)

func TestIndexRecordAndLookup(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenIndex(filepath.Join(dir, "journals.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer idx.Close()

	if err := idx.Record(100, "/transactions/transaction-100.xml"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := idx.Record(200, "/transactions/transaction-200.xml"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	path, err := idx.Lookup(100)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if path != "/transactions/transaction-100.xml" {
		t.Fatalf("Lookup(100) = %q", path)
	}

	latest, err := idx.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != "/transactions/transaction-200.xml" {
		t.Fatalf("Latest() = %q, want the 200 entry", latest)
	}

	missing, err := idx.Lookup(999)
	if err != nil {
		t.Fatalf("Lookup(999): %v", err)
	}
	if missing != "" {
		t.Fatalf("Lookup(999) = %q, want empty", missing)
	}
}
