//go:build linux

package store

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// Content is a memory-mapped view of one content entry's payload. The
// caller must call Release when done to unmap it and close the backing
// descriptor.
type Content struct {
	data []byte
	fd   int
}

// Bytes returns the mapped payload. The slice is only valid until
// Release is called.
func (c *Content) Bytes() []byte { return c.data }

// Release unmaps the content and closes its file descriptor. A
// zero-size entry carries no mapping and no descriptor (see
// ContentGet's fd == -1 sentinel), so there is nothing to unmap or
// close.
func (c *Content) Release() error {
	if c.fd == -1 {
		return nil
	}
	if c.data != nil {
		if err := unix.Munmap(c.data); err != nil {
			unix.Close(c.fd)
			return fmt.Errorf("store: munmap content: %w", err)
		}
		c.data = nil
	}
	return unix.Close(c.fd)
}

func hashDirName(hash uint64) string {
	return strconv.FormatUint(hash, 10)
}

// contentAdd writes payload into the content directory under hash,
// deduplicating by assuming a pre-existing directory for the same hash
// holds identical content (hash collisions on text payloads are
// accepted as negligible) and adding a new hard-link reference instead
// of rewriting it.
func contentAdd(contentFd int, hash uint64, payload []byte) error {
	dirName := hashDirName(hash)

	err := unix.Mkdirat(contentFd, dirName, 0700)
	if err != nil {
		if err != unix.EEXIST {
			return fmt.Errorf("store: mkdir content dir: %w", err)
		}
		return contentAddLink(contentFd, dirName)
	}

	return contentAddNew(contentFd, dirName, payload)
}

func contentAddNew(contentFd int, dirName string, payload []byte) error {
	basePath := dirName + "/1"
	fd, err := unix.Openat(contentFd, basePath, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("store: create content file: %w", err)
	}
	defer unix.Close(fd)

	remaining := payload
	for len(remaining) > 0 {
		n, err := unix.Write(fd, remaining)
		if err != nil {
			return fmt.Errorf("store: write content: %w", err)
		}
		remaining = remaining[n:]
	}

	return nil
}

func contentAddLink(contentFd int, dirName string) error {
	basePath := dirName + "/1"

	var st unix.Stat_t
	if err := unix.Fstatat(contentFd, basePath, &st, 0); err != nil {
		return fmt.Errorf("store: stat existing content: %w", err)
	}

	linkNum := uint64(st.Nlink) + 1
	linkPath := dirName + "/" + strconv.FormatUint(linkNum, 10)

	if err := unix.Linkat(contentFd, basePath, contentFd, linkPath, 0); err != nil {
		return fmt.Errorf("store: link content: %w", err)
	}

	return nil
}

// contentRemove drops one reference to hash's content entry, removing
// the directory entirely once its last reference is gone.
func contentRemove(contentFd int, hash uint64) error {
	dirName := hashDirName(hash)
	basePath := dirName + "/1"

	var st unix.Stat_t
	if err := unix.Fstatat(contentFd, basePath, &st, 0); err != nil {
		return fmt.Errorf("store: stat content for remove: %w", err)
	}

	linkPath := dirName + "/" + strconv.FormatUint(uint64(st.Nlink), 10)
	if err := unix.Unlinkat(contentFd, linkPath, 0); err != nil {
		return fmt.Errorf("store: unlink content reference: %w", err)
	}

	if st.Nlink == 1 {
		if err := unix.Unlinkat(contentFd, dirName, unix.AT_REMOVEDIR); err != nil {
			return fmt.Errorf("store: remove content dir: %w", err)
		}
	}

	return nil
}

// ContentGet opens and memory-maps (read-only, private) the payload for
// hash. Returns ErrNotFound if no content entry exists for hash.
func (s *Store) ContentGet(hash uint64) (*Content, error) {
	path := hashDirName(hash) + "/1"
	fd, err := unix.Openat(s.contentFd, path, unix.O_RDONLY, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: open content: %w", err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("store: fstat content: %w", err)
	}

	if st.Size == 0 {
		unix.Close(fd)
		return &Content{fd: -1, data: []byte{}}, nil
	}

	data, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("store: mmap content: %w", err)
	}

	return &Content{data: data, fd: fd}, nil
}
