//go:build linux

// Package store implements the clip store: a process-crash-safe,
// multi-process-concurrent sequence of clipboard entries backed by a
// memory-mapped, fixed-record index file plus a content-addressed,
// hard-linked directory of full payloads.
//
// On-disk layout (native host byte order; the store does not claim
// portability across differing endianness):
//
//	Index file: a contiguous sequence of 256-byte records. The first
//	record is the header (nr_snips, nr_snips_alloc, padding). The
//	remaining nr_snips_alloc records are snip slots, of which the first
//	nr_snips are live, oldest at slot 0, newest at slot nr_snips-1.
//
//	Snip record: u64 hash | u8 doomed | 7 bytes padding | u64 nr_lines |
//	232 bytes null-terminated preview (231 bytes of usable content).
//
//	Content directory: one subdirectory per live hash, named by its
//	decimal value. Inside, a file "1" holds the raw payload; additional
//	references are hard links "2", "3", ... so the link count on "1"
//	equals the number of live snips referencing that hash.
//
// Every mutating or consistency-dependent operation holds a whole-file
// advisory exclusive lock (flock) on the index file descriptor for its
// duration. The lock is reentrant per process via a refcount; the first
// acquisition after another process has mutated the store triggers a
// remap-and-reload step that restores the invariant that the mapping
// covers every live slot.
package store

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Sentinel errors forming the taxonomy described in spec §7. Wrapped I/O
// failures are surfaced via %w and should be matched with errors.Is
// against these where the caller cares about the distinction.
var (
	// ErrInvalidFormat is returned when the index file's header fails
	// its consistency checks (wrong size, nr_snips > nr_snips_alloc).
	ErrInvalidFormat = errors.New("store: invalid index format")
	// ErrOutOfRange is returned by Replace when age >= current length.
	ErrOutOfRange = errors.New("store: age out of range")
	// ErrNotFound is returned when a hash has no content entry.
	ErrNotFound = errors.New("store: content not found")
)

const (
	// recordSize is the fixed size, in bytes, of every record in the
	// index file (both the header and every snip).
	recordSize = 256

	// allocBatch is the number of snip slots allocated at a time when
	// the index file must grow past its current allocation.
	allocBatch = 1024

	// Header field offsets within a header record.
	headerNrSnipsOffset      = 0
	headerNrSnipsAllocOffset = 8

	// Snip field offsets within a snip record.
	snipHashOffset     = 0
	snipDoomedOffset   = 8
	snipNrLinesOffset  = 16
	snipPreviewOffset  = 24
	snipPreviewSize    = recordSize - snipPreviewOffset // 232 bytes, null-terminated
	snipPreviewMaxText = snipPreviewSize - 1             // 231 usable bytes

	// PreviewMaxBytes is the longest a Snip.Preview can be. Callers that
	// render previews (the selector, in particular) use it to detect
	// when a preview was truncated at store time.
	PreviewMaxBytes = snipPreviewMaxText
)

// Direction selects which end of the store an iteration or age-based
// operation is anchored to.
type Direction int

const (
	// NewestFirst iterates from the newest entry (index nr_snips-1) to
	// the oldest (index 0). Age 0 in Replace means the newest entry.
	NewestFirst Direction = iota
	// OldestFirst iterates from the oldest entry (index 0) to the
	// newest (index nr_snips-1). Age 0 in Replace means the oldest entry.
	OldestFirst
)

// Action is the bitmask returned by a Remove predicate to decide what
// happens to the entry just visited, and whether iteration continues.
type Action int

const (
	// ActionRemove marks the just-visited entry for removal.
	ActionRemove Action = 1 << iota
	// ActionKeep explicitly keeps the just-visited entry. Equivalent to
	// the zero value, provided for readability at call sites.
	ActionKeep
	// ActionStop halts iteration after the current entry is processed.
	ActionStop
)

// Snip is a copy of one live entry's fields, taken when the callback or
// loop iteration produced it; later store changes do not affect it.
type Snip struct {
	Hash    uint64
	NrLines uint64
	Preview string
}

// Store is the clip-store handle: the open file descriptors, the
// current mapping, a local snapshot of (nr_snips, nr_snips_alloc), and
// the lock refcount. A Store must not be shared across goroutines
// without external synchronization beyond what the flock refcount
// provides (the refcount guards only the cross-process lock, not
// concurrent use of the same handle from multiple goroutines).
type Store struct {
	indexFile *os.File
	contentFd int // open directory fd for the content store

	data []byte // current mmap, at least recordSize*(localAlloc+1) bytes (not remapped on another process's shrink)

	localNrSnips uint64
	localAlloc   uint64

	refcount int
}

// Open initializes a clip store from an open index file and an open
// directory file descriptor for the content store. If the index file is
// empty it is extended to hold just the header, with both counts set to
// zero. The file is mapped read-write, shared, for the lifetime of the
// Store.
func Open(indexFile *os.File, contentDirFd int) (*Store, error) {
	s := &Store{indexFile: indexFile, contentFd: contentDirFd}

	// Mirrors cs_ref_no_update(): take the lock for the duration of
	// initialization without yet trusting any local snapshot to compare
	// against.
	if err := unix.Flock(int(indexFile.Fd()), unix.LOCK_EX); err != nil {
		return nil, fmt.Errorf("store: lock index: %w", err)
	}
	s.refcount++
	defer s.unrefLocked()

	st, err := indexFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("store: stat index: %w", err)
	}

	size := st.Size()
	if size%recordSize != 0 {
		return nil, ErrInvalidFormat
	}

	if size == 0 {
		size = recordSize
		if err := unix.Ftruncate(int(indexFile.Fd()), size); err != nil {
			return nil, fmt.Errorf("store: truncate new index: %w", err)
		}
	}

	data, err := unix.Mmap(int(indexFile.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("store: mmap index: %w", err)
	}
	s.data = data

	if err := s.validateHeader(size); err != nil {
		unix.Munmap(data)
		return nil, err
	}

	s.localNrSnips = s.headerNrSnips()
	s.localAlloc = s.headerNrSnipsAlloc()

	return s, nil
}

func fileSizeFor(nrSnipsAlloc uint64) int64 {
	return int64(nrSnipsAlloc+1) * recordSize
}

func (s *Store) validateHeader(fileSize int64) error {
	nrSnips := s.headerNrSnips()
	nrSnipsAlloc := s.headerNrSnipsAlloc()
	if nrSnips > nrSnipsAlloc || fileSizeFor(nrSnipsAlloc) != fileSize {
		return ErrInvalidFormat
	}
	return nil
}

// Close unmaps the index file using the locally remembered allocation,
// never the (possibly stale) on-disk value. It does not close the
// underlying file descriptors, which remain owned by the caller.
func (s *Store) Close() error {
	if err := unix.Munmap(s.data); err != nil {
		return fmt.Errorf("store: munmap: %w", err)
	}
	s.data = nil
	return nil
}

// ref acquires the cross-process lock, incrementing the per-process
// refcount. On the 0->1 transition it performs the remap check: if the
// local snapshot of (nr_snips, nr_snips_alloc) disagrees with the
// on-disk header, it re-validates and, if the store grew, remaps to the
// new size. A shrink is tolerated without remapping: the handle simply
// uses the smaller logical bounds until the next grow forces a remap.
func (s *Store) ref() error {
	if s.refcount == 0 {
		if err := unix.Flock(int(s.indexFile.Fd()), unix.LOCK_EX); err != nil {
			return fmt.Errorf("store: lock: %w", err)
		}
	}
	s.refcount++

	if s.refcount > 1 {
		// Inner reference: any remapping needed was already done by the
		// outermost acquisition.
		return nil
	}

	onDiskNrSnips := s.headerNrSnips()
	onDiskAlloc := s.headerNrSnipsAlloc()
	if s.localNrSnips == onDiskNrSnips && s.localAlloc == onDiskAlloc {
		return nil
	}

	st, err := s.indexFile.Stat()
	if err != nil {
		return fmt.Errorf("store: stat: %w", err)
	}
	if err := s.validateHeader(st.Size()); err != nil {
		return err
	}

	if s.localAlloc < onDiskAlloc {
		newData, err := unix.Mremap(s.data, int(fileSizeFor(onDiskAlloc)), unix.MREMAP_MAYMOVE)
		if err != nil {
			return fmt.Errorf("store: mremap: %w", err)
		}
		s.data = newData
	}

	s.localNrSnips = onDiskNrSnips
	s.localAlloc = onDiskAlloc

	return nil
}

// Lock acquires the cross-process lock for the duration of a caller-held
// iteration or multi-step operation. It is the exported counterpart of
// ref, reentrant per process via the same refcount.
func (s *Store) Lock() error {
	return s.ref()
}

// Unlock releases one level of the lock acquired by Lock.
func (s *Store) Unlock() {
	s.unrefLocked()
}

func (s *Store) unrefLocked() {
	if s.refcount == 0 {
		panic("store: unref of unreferenced store")
	}
	s.refcount--
	if s.refcount == 0 {
		if err := unix.Flock(int(s.indexFile.Fd()), unix.LOCK_UN); err != nil {
			panic(fmt.Sprintf("store: unlock: %v", err))
		}
	}
}

// Len returns the current live entry count. It acquires the lock
// briefly to ensure it reflects any concurrent growth or shrinkage.
func (s *Store) Len() (int, error) {
	if err := s.ref(); err != nil {
		return 0, err
	}
	defer s.unrefLocked()
	return int(s.headerNrSnips()), nil
}
