// Package index maps domain identifiers to the dense matrix indices used by scoring models.
package index

import "fmt"

// Index is a bidirectional id <-> dense zero-based index mapping.
// Built once at load time, immutable thereafter.
type Index struct {
	toIdx map[int]int
	toID  []int
}

// New builds an index where ids[i] gets index i. Duplicate ids are rejected.
func New(ids []int) (*Index, error) {
	ix := &Index{
		toIdx: make(map[int]int, len(ids)),
		toID:  make([]int, len(ids)),
	}
	for i, id := range ids {
		if prev, dup := ix.toIdx[id]; dup {
			return nil, fmt.Errorf("id %d appears at positions %d and %d", id, prev, i)
		}
		ix.toIdx[id] = i
		ix.toID[i] = id
	}
	return ix, nil
}

// Index returns the dense index of id. ok is false for ids unseen at build time.
func (ix *Index) Index(id int) (int, bool) {
	i, ok := ix.toIdx[id]
	return i, ok
}

// ID returns the id stored at dense index i.
func (ix *Index) ID(i int) (int, bool) {
	if i < 0 || i >= len(ix.toID) {
		return 0, false
	}
	return ix.toID[i], true
}

// Contains reports whether id has an index.
func (ix *Index) Contains(id int) bool {
	_, ok := ix.toIdx[id]
	return ok
}

// IDs returns all ids in index order. Callers must not modify the slice.
func (ix *Index) IDs() []int { return ix.toID }

// Len returns the number of indexed ids.
func (ix *Index) Len() int { return len(ix.toID) }
