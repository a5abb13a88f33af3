//go:build linux

package store

import "encoding/binary"

// nativeEndian is the byte order used for every multi-byte field in the
// index file. The store does not need to interoperate with foreign
// architectures, so this is fixed to little-endian, which covers every
// desktop Linux target (amd64, arm64) this project runs on.
var nativeEndian = binary.LittleEndian

func (s *Store) headerNrSnips() uint64 {
	return nativeEndian.Uint64(s.data[headerNrSnipsOffset:])
}

func (s *Store) headerNrSnipsAlloc() uint64 {
	return nativeEndian.Uint64(s.data[headerNrSnipsAllocOffset:])
}

func (s *Store) setHeaderNrSnips(v uint64) {
	nativeEndian.PutUint64(s.data[headerNrSnipsOffset:], v)
}

func (s *Store) setHeaderNrSnipsAlloc(v uint64) {
	nativeEndian.PutUint64(s.data[headerNrSnipsAllocOffset:], v)
}

// slotOffset returns the byte offset of the i'th snip slot (0-indexed,
// i.e. i=0 is the oldest slot), relative to the start of the mapping.
func slotOffset(i uint64) int {
	return int((i + 1) * recordSize)
}

func (s *Store) slot(i uint64) []byte {
	off := slotOffset(i)
	return s.data[off : off+recordSize]
}

func snipHash(rec []byte) uint64 {
	return nativeEndian.Uint64(rec[snipHashOffset:])
}

func snipDoomed(rec []byte) bool {
	return rec[snipDoomedOffset] != 0
}

func setSnipDoomed(rec []byte, doomed bool) {
	if doomed {
		rec[snipDoomedOffset] = 1
	} else {
		rec[snipDoomedOffset] = 0
	}
}

func snipNrLines(rec []byte) uint64 {
	return nativeEndian.Uint64(rec[snipNrLinesOffset:])
}

func snipPreview(rec []byte) string {
	p := rec[snipPreviewOffset:]
	n := 0
	for n < len(p) && p[n] != 0 {
		n++
	}
	return string(p[:n])
}

// updateSnip overwrites a slot with a new (hash, preview, nrLines)
// triple, clearing the doomed marker.
func updateSnip(rec []byte, hash uint64, preview string, nrLines uint64) {
	nativeEndian.PutUint64(rec[snipHashOffset:], hash)
	setSnipDoomed(rec, false)
	nativeEndian.PutUint64(rec[snipNrLinesOffset:], nrLines)

	p := rec[snipPreviewOffset:]
	for i := range p {
		p[i] = 0
	}
	n := copy(p[:snipPreviewMaxText], preview)
	p[n] = 0
}

// toSnip makes a safe copy of a slot's fields for returning to callers.
func toSnip(rec []byte) Snip {
	return Snip{
		Hash:    snipHash(rec),
		NrLines: snipNrLines(rec),
		Preview: snipPreview(rec),
	}
}
