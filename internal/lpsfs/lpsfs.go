// Package lpsfs is a reference implementation of pkg/lps.LPS backed by a
// flat JSON record store on disk, grounded on the C reference
// implementation's eazel-install-rpm-glue.c, which keeps the installed
// package database as a directory of small per-package records guarded by
// a lockfile rather than a full RPM transaction.
//
// It exists to give the engine something concrete to run against in
// tests and examples; a production deployment is expected to back LPS
// with the host's real package manager instead.
package lpsfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// record is the on-disk shape of one installed package, enough to answer
// every pkg/lps.LPS query without re-deriving it from the filesystem on
// every call.
type record struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Release  string   `json:"release"`
	Arch     string   `json:"arch"`
	Features []string `json:"features"`
	Files    []string `json:"files"`
	Requires []string `json:"requires"`
}

// LPS is a pkg/lps.LPS implementation rooted at a directory holding one
// JSON file per installed package, named <pkgdir>/<name>.json.
type LPS struct {
	// PkgDir holds the per-package JSON records. Defaults to
	// "<root>/var/lib/eazel-install/packages" when empty.
	PkgDir string

	mu sync.Mutex
}

// New returns an LPS rooted at pkgDir. An empty pkgDir defers the decision
// to Query/IsInstalled/InstallBatch/UninstallBatch, which derive it from
// the root argument they're given.
func New(pkgDir string) *LPS {
	return &LPS{PkgDir: pkgDir}
}

func (l *LPS) dir(root string) string {
	if l.PkgDir != "" {
		return l.PkgDir
	}
	return filepath.Join(root, "var", "lib", "eazel-install", "packages")
}

// withLock acquires an advisory file lock on dir for the duration of fn:
// a shared resource acquired implicitly at the start of
// InstallBatch/UninstallBatch and released on return.
func (l *LPS) withLock(dir string, fn func() error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating package directory %q", dir)
	}

	fl := flock.New(filepath.Join(dir, ".lock"))
	if err := fl.Lock(); err != nil {
		return errors.Wrapf(err, "locking package directory %q", dir)
	}
	defer fl.Unlock()

	return fn()
}

// loadAll reads every record in dir. It does not itself acquire the lock;
// Query is read-only and tolerates a concurrent writer producing a
// slightly stale snapshot, matching the C original's best-effort reads.
func loadAll(dir string) ([]*record, error) {
	var out []*record

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading package directory %q", dir)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := loadOne(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func loadOne(path string) (*record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading package record %q", path)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "parsing package record %q", path)
	}
	return &rec, nil
}

func (rec *record) toRef() *pid.Ref {
	return &pid.Ref{
		Name:    rec.Name,
		Version: rec.Version,
		Release: rec.Release,
		Arch:    rec.Arch,
		Fill:    pid.MandatoryFill,
		Provides: pid.ProvidesSet{
			Features: rec.Features,
			Files:    rec.Files,
		},
	}
}

func refToRecord(ref *pid.Ref) *record {
	requires := make([]string, 0, len(ref.Depends))
	for _, d := range ref.Depends {
		if d.Child != nil {
			requires = append(requires, d.Child.Name)
		}
	}
	return &record{
		Name:     ref.Name,
		Version:  ref.Version,
		Release:  ref.Release,
		Arch:     ref.Arch,
		Features: ref.Provides.Features,
		Files:    ref.Provides.Files,
		Requires: requires,
	}
}

// Query implements pkg/lps.LPS.
func (l *LPS) Query(ctx context.Context, root string, c lps.Criterion) ([]*pid.Ref, error) {
	recs, err := loadAll(l.dir(root))
	if err != nil {
		return nil, err
	}

	var out []*pid.Ref
	for _, rec := range recs {
		switch c.Kind {
		case lps.Matches:
			if rec.Name == c.Value {
				out = append(out, rec.toRef())
			}
		case lps.Provides:
			if contains(rec.Features, c.Value) {
				out = append(out, rec.toRef())
			}
		case lps.Owns:
			if contains(rec.Files, c.Value) {
				out = append(out, rec.toRef())
			}
		case lps.Requires:
			if contains(rec.Requires, c.Value) {
				out = append(out, rec.toRef())
			}
		}
	}
	return out, nil
}

// IsInstalled implements pkg/lps.LPS.
func (l *LPS) IsInstalled(ctx context.Context, root, name, version, release string, sense pid.Sense) (bool, error) {
	recs, err := loadAll(l.dir(root))
	if err != nil {
		return false, err
	}
	for _, rec := range recs {
		if rec.Name != name {
			continue
		}
		if version == "" {
			return true, nil
		}
		if pid.VersionSatisfies(rec.Version, rec.Release, sense, version, release) {
			return true, nil
		}
	}
	return false, nil
}

// InstallBatch implements pkg/lps.LPS: it atomically writes one record per
// ref, failing the whole batch if any ref conflicts with a BreakRecord
// already attached to it.
func (l *LPS) InstallBatch(ctx context.Context, root string, refs []*pid.Ref, flags []lps.InstallFlag) ([]lps.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := l.dir(root)
	var outcomes []lps.Outcome

	err := l.withLock(dir, func() error {
		for _, ref := range refs {
			if len(ref.Breaks) > 0 {
				return errors.Errorf("install_batch: %s carries unresolved breaks, refusing the whole batch", ref.ReadableName())
			}
		}

		if lps.HasInstallFlag(flags, lps.InstallTest) {
			for _, ref := range refs {
				outcomes = append(outcomes, lps.Outcome{Ref: ref, Kind: outcomeKindFor(ref)})
			}
			return nil
		}

		for _, ref := range refs {
			existing, err := l.findInstalled(dir, ref.Name)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, ref.Name+".json")
			data, err := json.MarshalIndent(refToRecord(ref), "", "  ")
			if err != nil {
				return errors.Wrapf(err, "marshaling record for %s", ref.Name)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return errors.Wrapf(err, "writing record for %s", ref.Name)
			}

			kind := lps.OutcomeInstalled
			from := ""
			if existing != nil {
				kind = lps.OutcomeUpgraded
				from = existing.Version
			}
			outcomes = append(outcomes, lps.Outcome{Ref: ref, Kind: kind, FromVersion: from})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// UninstallBatch implements pkg/lps.LPS: it atomically removes one record
// per ref.
func (l *LPS) UninstallBatch(ctx context.Context, root string, refs []*pid.Ref, flags []lps.UninstallFlag) ([]lps.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := l.dir(root)
	var outcomes []lps.Outcome

	err := l.withLock(dir, func() error {
		if lps.HasUninstallFlag(flags, lps.UninstallTest) {
			for _, ref := range refs {
				outcomes = append(outcomes, lps.Outcome{Ref: ref, Kind: lps.OutcomeRemoved})
			}
			return nil
		}

		for _, ref := range refs {
			path := filepath.Join(dir, ref.Name+".json")
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "removing record for %s", ref.Name)
			}
			outcomes = append(outcomes, lps.Outcome{Ref: ref, Kind: lps.OutcomeRemoved})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (l *LPS) findInstalled(dir, name string) (*record, error) {
	path := filepath.Join(dir, name+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "checking for existing record %q", path)
	}
	return loadOne(path)
}

func outcomeKindFor(ref *pid.Ref) lps.OutcomeKind {
	if len(ref.Modifies) > 0 {
		return lps.OutcomeUpgraded
	}
	return lps.OutcomeInstalled
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// WalkInstalledFiles lists every regular file found on disk under root,
// using a fast recursive directory walk that skips pkgDir. It does not
// read the package records and does not compare the files they list
// against what it finds.
func WalkInstalledFiles(root string, pkgDir string) (map[string]bool, error) {
	onDisk := make(map[string]bool)
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == pkgDir {
				return filepath.SkipDir
			}
			if !de.IsDir() {
				onDisk[path] = true
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %q", root)
	}
	return onDisk, nil
}
