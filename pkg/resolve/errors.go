package resolve

import (
	"fmt"

	"github.com/eazel/eazel-install/pkg/pid"
)

// FatalError is returned by ResolveInstall when an infrastructure failure
// aborts the whole run at the earliest safe point, rather than being
// attributed to a single root.
type FatalError struct {
	// Kind is one of "CatalogUnavailable", "CatalogInconsistent".
	Kind string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("resolve: %s: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// RootNotFoundError marks that a specific requested root does not exist in
// the catalog. ResolveInstall does not construct it: a root the catalog
// reports NotFound is marked StatusCannotOpen in the returned Tree, and the
// run continues.
type RootNotFoundError struct {
	Name string
}

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("root package %q not found in catalog", e.Name)
}

// DependencyUnresolvedError reports that resolution could not close the
// dependency set for root.
type DependencyUnresolvedError struct {
	Root    *pid.Ref
	Subtree []*pid.Ref
}

func (e *DependencyUnresolvedError) Error() string {
	return fmt.Sprintf("could not resolve dependencies for %s", e.Root.ReadableName())
}
