//go:build linux

package store

// Iterator is a lazy, restartable walk over the live snips of a store,
// as of the moment it was created. The caller must hold the store's
// lock (via Lock) for the Iterator's entire lifetime; the Iterator
// itself acquires nothing.
type Iterator struct {
	s         *Store
	dir       Direction
	total     uint64
	remaining uint64
}

// Iterate returns an Iterator positioned before the first entry in dir
// order. The caller must already hold the store lock (see Lock) and
// must not release it before the Iterator is done being used. Starting
// a new Iterate call restarts the walk from the beginning.
func (s *Store) Iterate(dir Direction) *Iterator {
	return &Iterator{s: s, dir: dir, total: s.localNrSnips, remaining: s.localNrSnips}
}

// Next advances the iterator and returns the next snip in its
// direction, or ok==false once exhausted.
func (it *Iterator) Next() (snip Snip, ok bool) {
	if it.remaining == 0 {
		return Snip{}, false
	}

	var idx uint64
	switch it.dir {
	case OldestFirst:
		idx = it.total - it.remaining
	case NewestFirst:
		idx = it.remaining - 1
	}

	it.remaining--
	return toSnip(it.s.slot(idx)), true
}
