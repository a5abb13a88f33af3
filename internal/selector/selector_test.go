//go:build linux

package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdown/clipmenu/internal/store"
)

func TestParseReplyIndex(t *testing.T) {
	idx, ok := parseReplyIndex("[3] hello world\n")
	require.True(t, ok)
	require.Equal(t, uint64(3), idx)

	_, ok = parseReplyIndex("no brackets here\n")
	require.False(t, ok)

	_, ok = parseReplyIndex("[abc] nope\n")
	require.False(t, ok)
}

func TestFormatLineSingleLine(t *testing.T) {
	line := formatLine(7, 2, store.Snip{Preview: "hello", NrLines: 1})
	require.Equal(t, "[ 7] hello", line)
}

func TestFormatLineMultiLine(t *testing.T) {
	line := formatLine(1, 1, store.Snip{Preview: "hello", NrLines: 3})
	require.Equal(t, "[1] hello (3 lines)", line)
}

func TestFormatLineTruncatedPreviewGetsEllipsis(t *testing.T) {
	long := make([]byte, store.PreviewMaxBytes)
	for i := range long {
		long[i] = 'x'
	}
	line := formatLine(1, 1, store.Snip{Preview: string(long), NrLines: 1})
	require.True(t, len(line) > 4)
	require.Contains(t, line, "...")
}
