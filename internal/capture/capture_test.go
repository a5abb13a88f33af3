//go:build linux

package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/store"
)

func TestIsSalient(t *testing.T) {
	require.False(t, isSalient([]byte("")))
	require.False(t, isSalient([]byte("   \n\t  ")))
	require.True(t, isSalient([]byte("  x ")))
}

func TestIsPossiblePartialPrefix(t *testing.T) {
	require.True(t, isPossiblePartial("abc", "abcd"))
	require.True(t, isPossiblePartial("abcd", "abc"))
}

func TestIsPossiblePartialSuffix(t *testing.T) {
	require.True(t, isPossiblePartial("bcd", "abcd"))
	require.True(t, isPossiblePartial("abcd", "bcd"))
}

func TestIsPossiblePartialUnrelated(t *testing.T) {
	require.False(t, isPossiblePartial("abc", "xyz"))
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	dir := t.TempDir()

	indexFile, err := os.OpenFile(filepath.Join(dir, "line_cache"), os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	t.Cleanup(func() { indexFile.Close() })

	contentDir, err := os.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { contentDir.Close() })

	st, err := store.Open(indexFile, int(contentDir.Fd()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &Daemon{store: st, logger: zap.NewNop()}
}

// storeClip's replace path must return the hash of the payload it just
// wrote, not whatever happens to be newest in the store afterwards:
// another process sharing the store could append or trim between the
// write and a re-query, handing the re-server a stale hash.
func TestStoreClipReplaceReturnsWrittenHash(t *testing.T) {
	d := newTestDaemon(t)

	first, err := d.storeClip([]byte("hello"))
	require.NoError(t, err)

	second, err := d.storeClip([]byte("hello world"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	content, err := d.store.ContentGet(second)
	require.NoError(t, err)
	defer content.Release()
	require.Equal(t, []byte("hello world"), content.Bytes())
}
