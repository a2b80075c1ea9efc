// Package pid implements the package identity and data model: the
// value types that represent a package, its dependencies, and the
// relations between packages inside a single resolution run.
package pid

// ID is the catalog-assigned handle for a single logical package version.
// It is opaque to everything except the catalog client that minted it, and
// is the unit of identity used by the resolver's dedup pass: two PackageRefs
// with an equal ID are, by definition, the same package.
//
// A zero-value ID ("") means "not yet assigned", which is true of any ref
// that the catalog client has not yet filled.
type ID string

// Empty reports whether no catalog identity has been assigned yet.
func (id ID) Empty() bool {
	return id == ""
}
