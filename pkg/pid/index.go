package pid

import "github.com/armon/go-radix"

// FileIndex is a radix-tree index from filesystem path to the Ref that
// provides it, the same way solver.go indexes import-path prefixes with a
// radix.Tree for fast longest-prefix matching. The resolver's
// satisfaction pass and the conflict analyzer do not use it: they ask the
// LPS and keep their own maps.
//
// A radix tree rather than a plain map lets it answer "does anything
// provide a path under this directory", which is a prefix query map.Get
// cannot do.
type FileIndex struct {
	t *radix.Tree
}

// NewFileIndex returns an empty FileIndex.
func NewFileIndex() *FileIndex {
	return &FileIndex{t: radix.New()}
}

// Insert records that ref provides path. If path was already claimed, the
// previous owner (which may be ref itself) is returned with
// hadPrevious=true so the caller can raise a file conflict.
func (fi *FileIndex) Insert(path string, ref *Ref) (previous *Ref, hadPrevious bool) {
	v, existed := fi.t.Insert(path, ref)
	if !existed {
		return nil, false
	}
	return v.(*Ref), true
}

// Get returns the ref that exactly owns path, if any.
func (fi *FileIndex) Get(path string) (*Ref, bool) {
	v, ok := fi.t.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*Ref), true
}

// LongestPrefixOwner returns the ref owning the longest registered path
// that is a prefix of (or equal to) path.
func (fi *FileIndex) LongestPrefixOwner(path string) (*Ref, bool) {
	_, v, ok := fi.t.LongestPrefix(path)
	if !ok {
		return nil, false
	}
	return v.(*Ref), true
}

// Len returns the number of indexed paths.
func (fi *FileIndex) Len() int { return fi.t.Len() }
