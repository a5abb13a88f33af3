//go:build linux

package store

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ensureCapacity grows the index file and mapping, in batches of
// allocBatch slots, until localAlloc >= needed. A no-op if the store
// already has enough room.
func (s *Store) ensureCapacity(needed uint64) error {
	if needed <= s.localAlloc {
		return nil
	}

	newAlloc := s.localAlloc
	for newAlloc < needed {
		newAlloc += allocBatch
	}

	newSize := fileSizeFor(newAlloc)
	if err := unix.Ftruncate(int(s.indexFile.Fd()), newSize); err != nil {
		return fmt.Errorf("store: grow index file: %w", err)
	}

	newData, err := unix.Mremap(s.data, int(newSize), unix.MREMAP_MAYMOVE)
	if err != nil {
		return fmt.Errorf("store: mremap grow: %w", err)
	}
	s.data = newData
	s.localAlloc = newAlloc
	s.setHeaderNrSnipsAlloc(newAlloc)

	return nil
}

// shrinkToExact remaps and truncates the index file down to exactly
// newAlloc slots. Unlike growth, shrinks are never batched: the file
// shrinks to precisely the size needed so that removed entries, which
// may be sensitive, are unmapped promptly.
func (s *Store) shrinkToExact(newAlloc uint64) error {
	newSize := fileSizeFor(newAlloc)

	newData, err := unix.Mremap(s.data, int(newSize), 0)
	if err != nil {
		return fmt.Errorf("store: mremap shrink: %w", err)
	}
	s.data = newData

	if err := unix.Ftruncate(int(s.indexFile.Fd()), newSize); err != nil {
		return fmt.Errorf("store: truncate shrink: %w", err)
	}

	s.localAlloc = newAlloc
	s.setHeaderNrSnipsAlloc(newAlloc)

	return nil
}

// Add computes payload's hash and preview, writes its content entry,
// and appends a new newest snip. Returns the content hash.
func (s *Store) Add(payload []byte) (uint64, error) {
	if err := s.Lock(); err != nil {
		return 0, err
	}
	defer s.Unlock()

	hash := hashContent(payload)

	// Content-first, snip-second: a crash between these two steps leaves
	// an orphaned but harmless content entry, never a snip pointing at
	// nothing.
	if err := contentAdd(s.contentFd, hash, payload); err != nil {
		return 0, err
	}

	if err := s.ensureCapacity(s.localNrSnips + 1); err != nil {
		return 0, err
	}

	preview, nrLines := firstLine(payload)
	rec := s.slot(s.localNrSnips)
	updateSnip(rec, hash, preview, nrLines)

	s.localNrSnips++
	s.setHeaderNrSnips(s.localNrSnips)

	return hash, nil
}

// Replace overwrites the entry age positions from the end named by dir
// (0 = newest for NewestFirst, 0 = oldest for OldestFirst) with a new
// payload. Returns the new entry's content hash.
func (s *Store) Replace(dir Direction, age uint64, payload []byte) (uint64, error) {
	if err := s.Lock(); err != nil {
		return 0, err
	}
	defer s.Unlock()

	if age >= s.localNrSnips {
		return 0, ErrOutOfRange
	}

	var idx uint64
	switch dir {
	case NewestFirst:
		idx = s.localNrSnips - 1 - age
	case OldestFirst:
		idx = age
	}

	rec := s.slot(idx)
	oldHash := snipHash(rec)

	// New content first, record second, old content last: a failure
	// partway through never leaves the record pointing at content that
	// doesn't exist, same as Add.
	hash := hashContent(payload)
	if err := contentAdd(s.contentFd, hash, payload); err != nil {
		return 0, err
	}

	preview, nrLines := firstLine(payload)
	updateSnip(rec, hash, preview, nrLines)

	if err := contentRemove(s.contentFd, oldHash); err != nil {
		return 0, err
	}

	return hash, nil
}

// Remove walks live snips in dir order, calling predicate for each.
// Entries whose returned Action includes ActionRemove have their
// content reference dropped and are compacted out; ActionStop ends the
// walk after the current entry. Returns the number of entries removed.
func (s *Store) Remove(dir Direction, predicate func(Snip) Action) (int, error) {
	if err := s.Lock(); err != nil {
		return 0, err
	}
	defer s.Unlock()

	n := s.localNrSnips

	for i := uint64(0); i < n; i++ {
		var idx uint64
		switch dir {
		case OldestFirst:
			idx = i
		case NewestFirst:
			idx = n - 1 - i
		}

		rec := s.slot(idx)
		action := predicate(toSnip(rec))
		if action&ActionRemove != 0 {
			setSnipDoomed(rec, true)
		}
		if action&ActionStop != 0 {
			break
		}
	}

	return s.compact(n)
}

// compact performs the single left-to-right pass described in spec §4.1:
// non-doomed entries at index i shift to i-nrDoomed, doomed entries have
// their content reference dropped, and the file shrinks to the new
// live count exactly.
func (s *Store) compact(n uint64) (int, error) {
	var nrDoomed uint64

	for i := uint64(0); i < n; i++ {
		rec := s.slot(i)
		if snipDoomed(rec) {
			if err := contentRemove(s.contentFd, snipHash(rec)); err != nil {
				return int(nrDoomed), err
			}
			nrDoomed++
			continue
		}
		if nrDoomed > 0 {
			copy(s.slot(i-nrDoomed), rec)
		}
	}

	if nrDoomed == 0 {
		return 0, nil
	}

	newNrSnips := n - nrDoomed
	s.localNrSnips = newNrSnips
	s.setHeaderNrSnips(newNrSnips)

	if err := s.shrinkToExact(newNrSnips); err != nil {
		return int(nrDoomed), err
	}

	return int(nrDoomed), nil
}

// Trim keeps the first keepN entries encountered in dir order and
// removes the rest. A no-op if keepN >= the current length.
func (s *Store) Trim(dir Direction, keepN uint64) (int, error) {
	var seen uint64
	return s.Remove(dir, func(Snip) Action {
		seen++
		if seen <= keepN {
			return ActionKeep
		}
		return ActionRemove
	})
}
