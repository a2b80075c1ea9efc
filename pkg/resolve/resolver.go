// Package resolve implements the fixed-point resolution engine: starting
// from a set of root packages, it alternately fetches missing
// information, deduplicates by logical identity, and prunes
// already-satisfied dependencies, until no node remains unresolved.
package resolve

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/eazel/eazel-install/pkg/catalog"
	"github.com/eazel/eazel-install/pkg/event"
	"github.com/eazel/eazel-install/pkg/lps"
	"github.com/eazel/eazel-install/pkg/pid"
)

// Resolver is the ambient carrier object every pass operates against: one
// instance per run, holding the config for that run and the two caches
// (dedupe map and satisfied set) the run itself owns.
type Resolver struct {
	Catalog catalog.Client
	LPS     lps.LPS
	Bus     *event.Bus
	Log     logrus.FieldLogger
	Root    string // filesystem root passed to every LPS call

	arena        *arena
	satisfiedSet map[pid.ID]struct{}
	parents      map[*pid.Ref][]*pid.Ref
	catalogSeen  map[pid.ID]bool // enforces at-most-one GetInfo call per identity
	prefetched   map[string]*prefetchOutcome
}

// New returns a Resolver ready to run ResolveInstall. log may be nil.
func New(cat catalog.Client, l lps.LPS, bus *event.Bus, log logrus.FieldLogger, root string) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{
		Catalog: cat,
		LPS:     l,
		Bus:     bus,
		Log:     log,
		Root:    root,
	}
}

// ResolveInstall runs the fixed-point resolution algorithm over roots and
// returns the completed tree. A non-nil error is returned only for
// infrastructure failures (a FatalError for catalog failures, or the LPS
// query error as the LPS returned it); per-root failures are represented
// inside the returned Tree instead.
func (r *Resolver) ResolveInstall(ctx context.Context, roots []*pid.Ref) (*Tree, error) {
	r.arena = newArena()
	r.satisfiedSet = make(map[pid.ID]struct{})
	r.parents = make(map[*pid.Ref][]*pid.Ref)
	r.catalogSeen = make(map[pid.ID]bool)
	r.prefetched = make(map[string]*prefetchOutcome)

	for _, root := range roots {
		root.Toplevel = true
		r.arena.add(root)
	}

	frontier := append([]*pid.Ref(nil), roots...)

	for len(frontier) > 0 {
		if err := r.passA(ctx, frontier); err != nil {
			return nil, err
		}

		r.passB(frontier)

		next, err := r.passC(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = next
	}

	tree := &Tree{
		Roots:  roots,
		All:    r.arena.liveRefs(),
		Failed: make(map[*pid.Ref]bool),
	}
	r.attributeFailures(tree)
	return tree, nil
}

// passA fetches missing information for every node in frontier whose
// fill-flags are not yet mandatory-complete.
//
// Two distinct *pid.Ref pointers can name the same identity before either
// is filled (e.g. two roots depending on the same unfilled child) and
// passB only dedups after passA has already run over the whole frontier,
// so catalogSeen (keyed by pid.ID) can't catch this: both pointers carry
// an empty ID until one of them is fetched. fetchedThisPass keys on the
// pre-fetch identity available before fill (name plus whatever version
// constraint was requested) and is consulted first, so a second pointer
// asking for the same identity anywhere in this run, in this passA call
// or a later one, reuses the first's result instead of issuing its own
// GetInfo.
func (r *Resolver) passA(ctx context.Context, frontier []*pid.Ref) error {
	fetchedThisPass := r.prefetched

	for _, node := range frontier {
		if node.Status.Terminal() {
			continue
		}
		if node.Arch == "src" {
			node.Status = pid.StatusSourceNotSupported
			continue
		}
		if node.Fill.Has(pid.MandatoryFill) {
			continue
		}
		if !node.ID.Empty() && r.catalogSeen[node.ID] {
			// Another path already triggered the fetch for this identity;
			// Pass B will canonicalize onto that node shortly.
			continue
		}

		key := prefetchKey(node)
		if cached, ok := fetchedThisPass[key]; ok {
			if cached.notFound {
				node.Status = pid.StatusCannotOpen
			} else {
				copyFilled(node, cached.filled)
				node.Status = pid.StatusPartlyResolved
			}
			continue
		}

		filled, err := r.Catalog.GetInfo(ctx, node)
		if !node.ID.Empty() {
			r.catalogSeen[node.ID] = true
		}
		if err != nil {
			var cerr *catalog.Error
			if errors.As(err, &cerr) && !cerr.Fatal() {
				node.Status = pid.StatusCannotOpen
				fetchedThisPass[key] = &prefetchOutcome{notFound: true}
				continue
			}
			return &FatalError{Kind: "CatalogUnavailable", Err: err}
		}

		if !filled.ID.Empty() {
			r.catalogSeen[filled.ID] = true
		}
		fetchedThisPass[key] = &prefetchOutcome{filled: filled}
		copyFilled(node, filled)
		node.Status = pid.StatusPartlyResolved
	}
	return nil
}

// prefetchOutcome caches one passA GetInfo result so every frontier member
// sharing the same pre-fetch identity reuses it instead of re-fetching.
type prefetchOutcome struct {
	filled   *pid.Ref
	notFound bool
}

// prefetchKey identifies a GetInfo request by everything known about node
// before it is filled: a catalog lookup for the same name under the same
// constraints is the same request, regardless of which dependency edge
// the *pid.Ref pointer arrived through.
func prefetchKey(node *pid.Ref) string {
	return node.Name + "\x00" + node.Version + "\x00" + node.Release + "\x00" +
		node.Arch + "\x00" + node.Distribution + "\x00" + node.Filename
}

// copyFilled merges a catalog-filled ref's data into the original node in
// place, so existing pointers to node (dependency edges already pointing
// at it) keep working.
func copyFilled(node, filled *pid.Ref) {
	toplevel := node.Toplevel
	*node = *filled
	node.Toplevel = toplevel
}
