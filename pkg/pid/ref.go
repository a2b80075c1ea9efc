package pid

// FillFlags records which attributes of a PackageRef have been loaded from
// the catalog or a local package file. Flags only ever gain bits over the
// lifetime of a ref within one resolution run.
type FillFlags uint32

// Individual fill bits. MandatoryFill is the set Pass A requires before a
// ref is considered informationally complete.
const (
	FillName FillFlags = 1 << iota
	FillVersion
	FillDeps
	FillProvides
	FillFiles
	FillID
)

// MandatoryFill is the minimum set of information Pass A must obtain before
// a node can proceed to dedup and satisfaction pruning.
const MandatoryFill = FillName | FillVersion | FillDeps | FillProvides

// Has reports whether all bits in want are set.
func (f FillFlags) Has(want FillFlags) bool { return f&want == want }

// Status is the lifecycle state of a PackageRef.
type Status int

// The full status lattice. The happy path is Unknown -> PartlyResolved ->
// Resolved; anything else is a terminal failure.
const (
	StatusUnknown Status = iota
	StatusPartlyResolved
	StatusResolved
	StatusCannotOpen
	StatusSourceNotSupported
	StatusDependencyFail
	StatusBreaksDependency
	StatusInvalid
)

// Terminal reports whether this status ends resolution for the node (either
// successfully, as Resolved, or with one of the five error states).
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusCannotOpen, StatusSourceNotSupported,
		StatusDependencyFail, StatusBreaksDependency, StatusInvalid:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusPartlyResolved:
		return "PARTLY_RESOLVED"
	case StatusResolved:
		return "RESOLVED"
	case StatusCannotOpen:
		return "CANNOT_OPEN"
	case StatusSourceNotSupported:
		return "SOURCE_NOT_SUPPORTED"
	case StatusDependencyFail:
		return "DEPENDENCY_FAIL"
	case StatusBreaksDependency:
		return "BREAKS_DEPENDENCY"
	case StatusInvalid:
		return "INVALID"
	default:
		return "INVALID"
	}
}

// ModStatus records how a modified (replaced) package relates to its
// replacement.
type ModStatus int

// The three possible outcomes of a modifies relation.
const (
	ModUnknown ModStatus = iota
	ModUpgraded
	ModDowngraded
	ModUnchanged
)

func (m ModStatus) String() string {
	switch m {
	case ModUpgraded:
		return "UPGRADED"
	case ModDowngraded:
		return "DOWNGRADED"
	case ModUnchanged:
		return "UNCHANGED"
	default:
		return "UNKNOWN"
	}
}

// Modification records that installing the owning PackageRef will replace
// an already-installed package.
type Modification struct {
	Ref    *Ref
	Status ModStatus
}

// Ref is a single node in the resolution graph: a package, named and
// constrained on input, filled in by the catalog or a local file as
// resolution proceeds.
//
// A Ref is owned by exactly one ResolvedTree once resolution begins;
// Dependency.Child and Modification.Ref are non-owning references into
// that same tree.
type Ref struct {
	// Catalog-assigned identity. Empty until Pass A fills it.
	ID ID

	Name         string
	Version      string
	Release      string
	VersionSense Sense // sense of the desired-version constraint, if any
	Arch         string
	Distribution string
	Summary      string
	Bytesize     int64

	// Filename is set when this ref originated from a local package file
	// rather than the catalog; when set, it is authoritative for Deps and
	// Provides.
	Filename string

	Fill FillFlags

	Provides ProvidesSet
	Depends  []*Dependency
	Modifies []Modification
	Breaks   []BreakRecord

	Status Status

	// Toplevel is true for a ref the user requested directly, as opposed to
	// one pulled in by dependency resolution.
	Toplevel bool

	// index is reserved for this ref's position in an owning arena. The
	// resolver's arena tracks slots in its own map and does not set it.
	index int
}

// ProvidesSet is the set of features and files a package makes available.
// A filesystem path is also a feature for dependency-matching purposes.
type ProvidesSet struct {
	Features []string
	Files    []string
}

// Dependency is a directed edge: the owning Ref requires Child, subject to
// an optional version constraint.
type Dependency struct {
	Child           *Ref
	Sense           Sense
	RequiredVersion string
	RequiredRelease string
}

// BreakKind enumerates why an installed package is invalidated by a new one.
type BreakKind int

// The three kinds of breakage CA and RES can record.
const (
	BreakFeatureMissing BreakKind = iota
	BreakFileConflict
	BreakVersionConflict
)

func (k BreakKind) String() string {
	switch k {
	case BreakFeatureMissing:
		return "FeatureMissing"
	case BreakFileConflict:
		return "FileConflict"
	case BreakVersionConflict:
		return "VersionConflict"
	default:
		return "Unknown"
	}
}

// BreakRecord records that installing some package invalidates Broken.
type BreakRecord struct {
	Kind    BreakKind
	Broken  *Ref
	Feature string // set for BreakFeatureMissing
	File    string // set for BreakFileConflict
	Version string // set for BreakVersionConflict
}

// Category is a user-facing grouping of root packages. Categories are
// input-only: they are never mutated after being parsed, and ownership of
// their Roots passes to the resolver once resolution starts.
type Category struct {
	Name  string
	Roots []*Ref
}

// MakeRef constructs a partially-filled ref suitable as a resolver input.
// version and the remaining optional fields may be empty.
func MakeRef(name, version, arch, distribution string) *Ref {
	r := &Ref{
		Name:         name,
		Version:      version,
		Arch:         arch,
		Distribution: distribution,
	}
	if name != "" {
		r.Fill |= FillName
	}
	if version != "" {
		r.Fill |= FillVersion
	}
	return r
}

// ReadableName returns a stable, user-facing name for ref: its Name if
// present, otherwise falls back to its first provided feature.
func (r *Ref) ReadableName() string {
	if r.Name != "" {
		return r.Name
	}
	if len(r.Provides.Features) > 0 {
		return r.Provides.Features[0]
	}
	return "(unknown package)"
}

// MatchesID reports whether ref's assigned identity equals id.
func (r *Ref) MatchesID(id ID) bool {
	return !r.ID.Empty() && r.ID == id
}
