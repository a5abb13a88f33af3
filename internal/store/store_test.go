//go:build linux

package store

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()

	indexFile, err := os.OpenFile(filepath.Join(dir, "line_cache"), os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	t.Cleanup(func() { indexFile.Close() })

	contentDir, err := os.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { contentDir.Close() })

	s, err := Open(indexFile, int(contentDir.Fd()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, dir
}

func collect(t *testing.T, s *Store, dir Direction) []Snip {
	t.Helper()
	require.NoError(t, s.Lock())
	defer s.Unlock()

	var out []Snip
	it := s.Iterate(dir)
	for {
		snip, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, snip)
	}
	return out
}

func TestOpenEmptyFileInitializesHeader(t *testing.T) {
	s, _ := openTestStore(t)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestAppendAndEnumerate(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Add([]byte("hello\n"))
	require.NoError(t, err)
	_, err = s.Add([]byte("world"))
	require.NoError(t, err)

	snips := collect(t, s, NewestFirst)
	require.Len(t, snips, 2)
	require.Equal(t, "world", snips[0].Preview)
	require.Equal(t, uint64(1), snips[0].NrLines)
	require.Equal(t, "hello", snips[1].Preview)
	require.Equal(t, uint64(1), snips[1].NrLines)
}

func TestDedupReferenceCounting(t *testing.T) {
	s, dir := openTestStore(t)

	h1, err := s.Add([]byte("dup"))
	require.NoError(t, err)
	h2, err := s.Add([]byte("dup"))
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	contentDir := filepath.Join(dir, hashDirName(h1))
	st1, err := os.Stat(filepath.Join(contentDir, "1"))
	require.NoError(t, err)
	stat, ok := st1.Sys().(*syscall.Stat_t)
	require.True(t, ok)
	require.EqualValues(t, 2, stat.Nlink)
}

func TestReplaceOutOfRange(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Add([]byte("only"))
	require.NoError(t, err)

	_, err = s.Replace(NewestFirst, 1, []byte("nope"))
	require.ErrorIs(t, err, ErrOutOfRange)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveCompactsSparseDeletion(t *testing.T) {
	s, _ := openTestStore(t)

	for _, payload := range []string{"A", "B", "C", "D"} {
		_, err := s.Add([]byte(payload))
		require.NoError(t, err)
	}

	removed, err := s.Remove(OldestFirst, func(snip Snip) Action {
		if snip.Preview == "B" || snip.Preview == "D" {
			return ActionRemove
		}
		return ActionKeep
	})
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	snips := collect(t, s, OldestFirst)
	require.Len(t, snips, 2)
	require.Equal(t, "A", snips[0].Preview)
	require.Equal(t, "C", snips[1].Preview)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestTrimBatched(t *testing.T) {
	s, _ := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.Add([]byte{byte('a' + i)})
		require.NoError(t, err)
	}

	removed, err := s.Trim(NewestFirst, 3)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	snips := collect(t, s, NewestFirst)
	require.Equal(t, []string{"e", "d", "c"}, []string{snips[0].Preview, snips[1].Preview, snips[2].Preview})
}

func TestRemoveLeavesNoDoomedSnips(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Add([]byte("keepme"))
	require.NoError(t, err)

	_, err = s.Remove(OldestFirst, func(Snip) Action { return ActionKeep })
	require.NoError(t, err)

	require.NoError(t, s.Lock())
	defer s.Unlock()
	require.False(t, snipDoomed(s.slot(0)))
}

func TestRoundTripContentGet(t *testing.T) {
	s, _ := openTestStore(t)

	payload := []byte("round trip payload")
	hash, err := s.Add(payload)
	require.NoError(t, err)

	content, err := s.ContentGet(hash)
	require.NoError(t, err)
	defer content.Release()

	require.Equal(t, payload, content.Bytes())
}

func TestRoundTripContentGetEmptyPayload(t *testing.T) {
	s, _ := openTestStore(t)

	hash, err := s.Add([]byte{})
	require.NoError(t, err)

	content, err := s.ContentGet(hash)
	require.NoError(t, err)
	require.Equal(t, []byte{}, content.Bytes())
	require.NoError(t, content.Release())
}

func TestCrossProcessGrowthVisibility(t *testing.T) {
	dir := t.TempDir()

	indexPath := filepath.Join(dir, "line_cache")
	indexFile1, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	defer indexFile1.Close()

	contentDir1, err := os.Open(dir)
	require.NoError(t, err)
	defer contentDir1.Close()

	s1, err := Open(indexFile1, int(contentDir1.Fd()))
	require.NoError(t, err)
	defer s1.Close()

	n, err := s1.Len()
	require.NoError(t, err)
	require.Equal(t, 0, n)

	indexFile2, err := os.OpenFile(indexPath, os.O_RDWR, 0600)
	require.NoError(t, err)
	defer indexFile2.Close()

	contentDir2, err := os.Open(dir)
	require.NoError(t, err)
	defer contentDir2.Close()

	s2, err := Open(indexFile2, int(contentDir2.Fd()))
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.Add([]byte("X"))
	require.NoError(t, err)

	n, err = s1.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	snips := collect(t, s1, OldestFirst)
	require.Len(t, snips, 1)
	require.Equal(t, "X", snips[0].Preview)
}

func TestFirstLineBoundaryCases(t *testing.T) {
	preview, nrLines := firstLine([]byte(""))
	require.Equal(t, "", preview)
	require.Equal(t, uint64(0), nrLines)

	preview, nrLines = firstLine([]byte("\n\n\n"))
	require.Equal(t, "", preview)
	require.Equal(t, uint64(3), nrLines)

	preview, nrLines = firstLine([]byte("道可到\n非常道"))
	require.Equal(t, "道可到", preview)
	require.Equal(t, uint64(2), nrLines)
}

func TestHashContentIsStable(t *testing.T) {
	require.Equal(t, hashContent([]byte("dup")), hashContent([]byte("dup")))
	require.NotEqual(t, hashContent([]byte("dup")), hashContent([]byte("dup2")))
}
