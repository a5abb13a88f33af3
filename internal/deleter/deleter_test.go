//go:build linux

package deleter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdown/clipmenu/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()

	indexFile, err := os.OpenFile(filepath.Join(dir, "line_cache"), os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	t.Cleanup(func() { indexFile.Close() })

	contentDir, err := os.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { contentDir.Close() })

	s, err := store.Open(indexFile, int(contentDir.Fd()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestRunRemovesMatches(t *testing.T) {
	st := openTestStore(t)
	for _, p := range []string{"password: abc", "hello", "password: xyz"} {
		_, err := st.Add([]byte(p))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	removed, err := Run(st, Options{Pattern: "^password:"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	n, err := st.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRunDryRunRemovesNothing(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Add([]byte("secret"))
	require.NoError(t, err)

	var buf bytes.Buffer
	removed, err := Run(st, Options{Pattern: "secret", DryRun: true}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, removed)
	require.Contains(t, buf.String(), "secret")

	n, err := st.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRunInvertedMatch(t *testing.T) {
	st := openTestStore(t)
	for _, p := range []string{"keep-me", "drop-me"} {
		_, err := st.Add([]byte(p))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	removed, err := Run(st, Options{Pattern: "keep-me", Invert: true}, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	n, err := st.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
