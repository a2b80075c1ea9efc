package event

import "github.com/eazel/eazel-install/pkg/pid"

// Event is the common interface every signal the engine emits implements.
type Event interface {
	// Name identifies the signal kind.
	Name() string
}

// DependencyCheck is emitted whenever the resolver evaluates whether a
// dependency edge is already satisfied.
type DependencyCheck struct {
	Parent *pid.Ref
	Dep    *pid.Dependency
}

// Name implements Event.
func (DependencyCheck) Name() string { return "dependency_check" }

// DownloadProgress reports bytes fetched so far for a single package.
type DownloadProgress struct {
	Name  string
	Bytes int64
	Total int64
}

// Name implements Event.
func (DownloadProgress) Name() string { return "download_progress" }

// DownloadFailed reports that fetching a package's payload failed.
type DownloadFailed struct {
	Name   string
	Reason error
}

// Name implements Event.
func (DownloadFailed) Name() string { return "download_failed" }

// PreflightCheck is emitted exactly once per run, after resolution succeeds
// and before any LPS mutation. It is the only event observers may cancel.
type PreflightCheck struct {
	TotalBytes    int64
	TotalPackages int
}

// Name implements Event.
func (PreflightCheck) Name() string { return "preflight_check" }

// InstallProgress reports per-package, then whole-transaction, progress.
type InstallProgress struct {
	Ref         *pid.Ref
	Index       int
	Count       int
	PkgDone     int64
	PkgTotal    int64
	TotalDone   int64
	TotalTotal  int64
}

// Name implements Event.
func (InstallProgress) Name() string { return "install_progress" }

// InstallFailed reports that a toplevel root failed to resolve or apply,
// together with its full failure subtree.
type InstallFailed struct {
	Toplevel *pid.Ref
	Subtree  []*pid.Ref
}

// Name implements Event.
func (InstallFailed) Name() string { return "install_failed" }

// UninstallFailed reports that removing ref would break other installed
// packages.
type UninstallFailed struct {
	Ref    *pid.Ref
	Breaks []pid.BreakRecord
}

// Name implements Event.
func (UninstallFailed) Name() string { return "uninstall_failed" }

// DeleteFiles asks observers whether downloaded package files should be
// unlinked now that the transaction has finished.
type DeleteFiles struct{}

// Name implements Event.
func (DeleteFiles) Name() string { return "delete_files" }

// Done is emitted exactly once, at the very end of a run.
type Done struct{}

// Name implements Event.
func (Done) Name() string { return "done" }
