package resolve

import "github.com/eazel/eazel-install/pkg/pid"

// arena is the resolver's backing store of canonical nodes, addressed by
// integer index rather than by following raw pointers around an
// ever-mutating cyclic graph. dedupe becomes a map from pid.ID to arena
// index, and every dependency edge that pointed at a now-duplicate node is
// rewritten to point at the arena's canonical *pid.Ref instead.
type arena struct {
	nodes  []*pid.Ref
	byID   map[pid.ID]int
	// slotOf maps every ref added to the arena, with or without a catalog
	// ID, to its slot, keyed by pointer, so Pass B can find the arena slot
	// of a node it is about to canonicalize.
	slotOf map[*pid.Ref]int
}

func newArena() *arena {
	return &arena{
		byID:   make(map[pid.ID]int),
		slotOf: make(map[*pid.Ref]int),
	}
}

// add inserts ref as a new, not-yet-deduped arena entry and returns its
// index.
func (a *arena) add(ref *pid.Ref) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, ref)
	a.slotOf[ref] = idx
	return idx
}

// canonicalFor returns the canonical ref registered for id, if dedup has
// already seen that identity.
func (a *arena) canonicalFor(id pid.ID) (*pid.Ref, bool) {
	if id.Empty() {
		return nil, false
	}
	idx, ok := a.byID[id]
	if !ok {
		return nil, false
	}
	return a.nodes[idx], true
}

// registerCanonical marks ref (already in the arena) as the canonical node
// for id. It is an error to call this twice for the same id with a
// different ref; callers must check canonicalFor first.
func (a *arena) registerCanonical(id pid.ID, ref *pid.Ref) {
	idx, ok := a.slotOf[ref]
	if !ok {
		idx = a.add(ref)
	}
	a.byID[id] = idx
}

// ensure gives ref a live arena slot if it doesn't already have one. Safe
// to call repeatedly for the same pointer: a node already tracked, whether
// as a plain slot or as some identity's canonical node, is left alone.
// passC calls this for every dependency child it carries into the next
// iteration's frontier, so a child that later turns out unfindable (and so
// never earns a catalog ID to register under) still has a place in the
// arena for failure attribution to find it by.
func (a *arena) ensure(ref *pid.Ref) {
	if _, ok := a.slotOf[ref]; ok {
		return
	}
	a.add(ref)
}

// dropDuplicate removes dup's standalone arena slot once every inbound
// edge has been rewritten to the canonical node; dup itself is no longer
// reachable from the tree after this.
func (a *arena) dropDuplicate(dup *pid.Ref) {
	delete(a.slotOf, dup)
}

// liveRefs returns every arena node that is still reachable: either
// registered as a canonical identity in byID, or still holding its own
// slot in slotOf because it was never assigned an identity at all (e.g.
// a root the catalog reported NotFound, which passB's empty-ID check
// leaves untouched). A byID-only view would silently drop that second
// case, since such a node is never registered as canonical for anything.
// dropDuplicate deletes a retired duplicate's slotOf entry without
// touching byID, so a node live in neither map is truly gone.
func (a *arena) liveRefs() []*pid.Ref {
	live := make(map[int]bool, len(a.nodes))
	for _, idx := range a.byID {
		live[idx] = true
	}
	for _, idx := range a.slotOf {
		live[idx] = true
	}
	out := make([]*pid.Ref, 0, len(live))
	for idx := range live {
		out = append(out, a.nodes[idx])
	}
	return out
}
