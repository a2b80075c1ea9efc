// Package transaction implements the transaction executor: it downloads
// and verifies package files, offers the single cancellation point before
// any LPS mutation, applies the batch, and writes a journal capable of
// reverting the operation.
package transaction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/eazel/eazel-install/pkg/event"
	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// Fetcher downloads the package file for ref, returning its local path.
// Implementations of the actual transport are out of scope for this
// package.
type Fetcher interface {
	Fetch(ctx context.Context, ref *pid.Ref) (path string, err error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, ref *pid.Ref) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, ref *pid.Ref) (string, error) {
	return f(ctx, ref)
}

// Executor runs install or uninstall batches.
type Executor struct {
	LPS     lps.LPS
	Bus     *event.Bus
	Log     logrus.FieldLogger
	Fetcher Fetcher

	Root           string
	TransactionDir string

	// Index, if set, is updated with every journal this executor writes,
	// so a caller can look a journal's path up by timestamp before handing
	// that path to Revert.
	Index *Index

	// VerifyChecksum, if set, is called with the local file path and the
	// catalog-declared checksum; it returns an error on mismatch. Checksum
	// verification itself is optional and skipped when checksums is nil.
	VerifyChecksum func(path, wantSHA256 string) error
}

// New returns an Executor ready to run Install/Uninstall/Revert. log may
// be nil; idx may be nil to skip journal indexing.
func New(l lps.LPS, bus *event.Bus, log logrus.FieldLogger, fetcher Fetcher, root, transactionDir string, idx *Index) *Executor {
	if log == nil {
		log = logrus.New()
	}
	return &Executor{
		LPS:            l,
		Bus:            bus,
		Log:            log,
		Fetcher:        fetcher,
		Root:           root,
		TransactionDir: transactionDir,
		Index:          idx,
	}
}

// outcome records what happened to one toplevel package within a batch,
// for event-bus reporting and for deciding which toplevels make it into
// the final LPS call.
type outcome struct {
	ref  *pid.Ref
	path string
	err  error
}

// InstallResult is returned by Install.
type InstallResult struct {
	Outcomes   []lps.Outcome
	JournalPath string
	Cancelled  bool
}

// Install fetches, verifies, and applies refs (the flattened node set of
// a resolved tree) as a single transaction. checksums maps a package name
// to its expected sha256, when known; nil skips verification entirely.
func (e *Executor) Install(ctx context.Context, refs []*pid.Ref, checksums map[string]string, flags []lps.InstallFlag, timestamp int64) (*InstallResult, error) {
	fetched := e.fetchAndVerify(ctx, refs, checksums)

	var ready []*pid.Ref
	var totalBytes int64
	for _, f := range fetched {
		if f.err != nil {
			e.Bus.Emit(event.DownloadFailed{Name: f.ref.Name, Reason: f.err})
			f.ref.Status = pid.StatusCannotOpen
			continue
		}
		ready = append(ready, f.ref)
		totalBytes += f.ref.Bytesize
	}

	if len(ready) == 0 {
		e.Bus.Emit(event.Done{})
		return &InstallResult{}, nil
	}

	if cancel := e.Bus.EmitCancellable(event.PreflightCheck{TotalBytes: totalBytes, TotalPackages: len(ready)}); cancel {
		e.Bus.Emit(event.Done{})
		return &InstallResult{Cancelled: true}, nil
	}

	outcomes, err := e.LPS.InstallBatch(ctx, e.Root, ready, flags)
	if err != nil {
		return nil, errors.Wrap(err, "install_batch")
	}

	j := &Journal{}
	for i, o := range outcomes {
		e.Bus.Emit(event.InstallProgress{Ref: o.Ref, Index: i, Count: len(outcomes)})
		if o.Kind == lps.OutcomeFailed {
			e.Log.WithField("package", o.Ref.ReadableName()).WithError(o.Err).Warn("install_batch reported a per-package failure")
			continue
		}
		j.Add(Entry{Ref: o.Ref, ModStatus: modStatusFor(o), PreviousVersion: o.FromVersion})
	}

	path, err := e.writeJournal(timestamp, j)
	if err != nil {
		return nil, err
	}

	e.Bus.Emit(event.Done{})
	return &InstallResult{Outcomes: outcomes, JournalPath: path}, nil
}

// writeJournal writes j to TransactionDir and, if an Index is configured,
// records it there under timestamp for fast revert lookup.
func (e *Executor) writeJournal(timestamp int64, j *Journal) (string, error) {
	path, err := WriteFile(e.TransactionDir, timestamp, j)
	if err != nil {
		return "", err
	}
	if e.Index != nil {
		if err := e.Index.Record(timestamp, path); err != nil {
			return "", errors.Wrap(err, "recording journal in index")
		}
	}
	return path, nil
}

// Uninstall applies refs (a removal set computed by pkg/uninstall) as a
// single transaction.
func (e *Executor) Uninstall(ctx context.Context, refs []*pid.Ref, flags []lps.UninstallFlag, timestamp int64) (*InstallResult, error) {
	if cancel := e.Bus.EmitCancellable(event.PreflightCheck{TotalPackages: len(refs)}); cancel {
		e.Bus.Emit(event.Done{})
		return &InstallResult{Cancelled: true}, nil
	}

	outcomes, err := e.LPS.UninstallBatch(ctx, e.Root, refs, flags)
	if err != nil {
		return nil, errors.Wrap(err, "uninstall_batch")
	}

	j := &Journal{}
	for i, o := range outcomes {
		e.Bus.Emit(event.InstallProgress{Ref: o.Ref, Index: i, Count: len(outcomes)})
		if o.Kind == lps.OutcomeFailed {
			e.Bus.Emit(event.UninstallFailed{Ref: o.Ref, Breaks: o.Ref.Breaks})
			continue
		}
		j.Add(Entry{Ref: o.Ref, ModStatus: pid.ModUnchanged, PreviousVersion: o.Ref.Version})
	}

	path, err := e.writeJournal(timestamp, j)
	if err != nil {
		return nil, err
	}

	e.Bus.Emit(event.Done{})
	return &InstallResult{Outcomes: outcomes, JournalPath: path}, nil
}

// fetchAndVerify downloads (retried once on transient error) and
// optionally checksum-verifies every ref. A toplevel's own fetch failure
// never aborts its siblings.
func (e *Executor) fetchAndVerify(ctx context.Context, refs []*pid.Ref, checksums map[string]string) []outcome {
	out := make([]outcome, 0, len(refs))
	for _, ref := range refs {
		if ref.Filename != "" {
			out = append(out, outcome{ref: ref, path: ref.Filename})
			continue
		}

		path, err := e.Fetcher.Fetch(ctx, ref)
		if err != nil {
			path, err = e.Fetcher.Fetch(ctx, ref)
		}
		if err != nil {
			out = append(out, outcome{ref: ref, err: errors.Wrapf(err, "fetching %s", ref.ReadableName())})
			continue
		}

		if want, ok := checksums[ref.Name]; ok {
			if err := e.verify(path, want); err != nil {
				out = append(out, outcome{ref: ref, err: err})
				continue
			}
		}
		out = append(out, outcome{ref: ref, path: path})
	}
	return out
}

func (e *Executor) verify(path, want string) error {
	if e.VerifyChecksum != nil {
		return e.VerifyChecksum(path, want)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %q for checksum", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "hashing %q", path)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return errors.Errorf("checksum mismatch for %q: want %s, got %s", path, want, got)
	}
	return nil
}

func modStatusFor(o lps.Outcome) pid.ModStatus {
	switch o.Kind {
	case lps.OutcomeUpgraded:
		return pid.ModUpgraded
	case lps.OutcomeInstalled:
		return pid.ModUnchanged
	default:
		return pid.ModUnknown
	}
}
