// Package lps defines the abstract interface the engine requires of the
// host's local package database. It specifies only the contract; driving
// a particular database's low-level transaction primitives is out of
// scope.
package lps

import (
	"context"

	"github.com/eazel/eazel-install/pkg/pid"
)

// CriterionKind selects what a Query call matches against.
type CriterionKind int

// The four query criteria the resolver and conflict analyzer issue.
const (
	Matches CriterionKind = iota
	Provides
	Owns
	Requires
)

func (k CriterionKind) String() string {
	switch k {
	case Matches:
		return "Matches"
	case Provides:
		return "Provides"
	case Owns:
		return "Owns"
	case Requires:
		return "Requires"
	default:
		return "Unknown"
	}
}

// Criterion is a single query against the local package database.
type Criterion struct {
	Kind CriterionKind
	// Value is the name, feature, file path, or required name/feature,
	// depending on Kind.
	Value string
}

// InstallFlag is one bit of the flag set passed to InstallBatch.
type InstallFlag int

// The install flags accepted by InstallBatch.
const (
	InstallTest InstallFlag = iota
	InstallForce
	InstallUpgrade
	InstallDowngrade
)

// UninstallFlag is one bit of the flag set passed to UninstallBatch.
type UninstallFlag int

// The uninstall flags accepted by UninstallBatch.
const (
	UninstallTest UninstallFlag = iota
	UninstallForce
)

// OutcomeKind classifies what happened to one package in a batch.
type OutcomeKind int

// The possible per-package outcomes.
const (
	OutcomeInstalled OutcomeKind = iota
	OutcomeUpgraded
	OutcomeRemoved
	OutcomeFailed
)

// Outcome is the result of applying one package within an install/uninstall
// batch.
type Outcome struct {
	Ref         *pid.Ref
	Kind        OutcomeKind
	FromVersion string // set for OutcomeUpgraded: the version that was replaced
	Err         error  // set for OutcomeFailed
}

// LPS is the contract the engine holds the local package database to.
//
// InstallBatch and UninstallBatch must be atomic with respect to the LPS's
// own dependency check: if any pre-flight conflict is found, no package in
// the batch is applied.
type LPS interface {
	// Query returns every locally-known PackageRef matching criterion,
	// rooted at root (the filesystem root configured for this run).
	Query(ctx context.Context, root string, criterion Criterion) ([]*pid.Ref, error)

	// IsInstalled reports whether a package named name is installed at
	// root, satisfying sense against (version, release). An empty version
	// means "installed in any version".
	IsInstalled(ctx context.Context, root, name, version, release string, sense pid.Sense) (bool, error)

	// InstallBatch installs or upgrades refs as a single atomic batch.
	InstallBatch(ctx context.Context, root string, refs []*pid.Ref, flags []InstallFlag) ([]Outcome, error)

	// UninstallBatch removes refs as a single atomic batch.
	UninstallBatch(ctx context.Context, root string, refs []*pid.Ref, flags []UninstallFlag) ([]Outcome, error)
}

// HasInstallFlag reports whether want is present in flags.
func HasInstallFlag(flags []InstallFlag, want InstallFlag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// HasUninstallFlag reports whether want is present in flags.
func HasUninstallFlag(flags []UninstallFlag, want UninstallFlag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
