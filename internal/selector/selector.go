//go:build linux

// Package selector drives the interactive picker: it enumerates the
// store newest-first, hands formatted lines to a launcher subprocess,
// resolves the chosen line back to a content hash, and spawns the
// re-server on success.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cdown/clipmenu/internal/launcher"
	"github.com/cdown/clipmenu/internal/store"
)

// Result is the outcome of a completed picker run.
type Result struct {
	// Hash is the chosen entry's content hash. Zero if nothing was
	// chosen (ExitCode will then be non-zero).
	Hash uint64
	// ExitCode is what the caller's process should exit with: the
	// launcher's own exit code on success, or a forced failure code
	// when the reply couldn't be resolved to a live entry.
	ExitCode int
}

const exitFailure = 1

// SpawnReserve launches the re-server for hash. Replaceable in tests.
type SpawnReserveFunc func(hash uint64) error

// Run enumerates st newest-first, drives launcherName/passDmenuArgs/extraArgs
// through the launcher subprocess, and resolves its reply. On a
// successful resolution it calls spawnReserve with the chosen hash.
func Run(st *store.Store, launcherName string, passDmenuArgs bool, extraArgs []string, spawnReserve SpawnReserveFunc) (Result, error) {
	lines, idxToHash, err := buildLines(st)
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return Result{ExitCode: exitFailure}, nil
	}

	argv := launcher.Argv(launcherName, passDmenuArgs, extraArgs)
	sess, err := launcher.Start(argv)
	if err != nil {
		return Result{}, err
	}

	for _, line := range lines {
		if err := sess.WriteLine(line); err != nil {
			return Result{}, fmt.Errorf("selector: write line: %w", err)
		}
	}
	if err := sess.CloseInput(); err != nil {
		return Result{}, fmt.Errorf("selector: close launcher input: %w", err)
	}

	reply, err := sess.ReadReply()
	if err != nil {
		return Result{}, err
	}

	idx, ok := parseReplyIndex(reply)
	hash, found := uint64(0), false
	if ok {
		hash, found = idxToHash[idx]
	}

	exitCode, waitErr := sess.Wait()
	if waitErr != nil {
		return Result{}, waitErr
	}

	if !found {
		return Result{ExitCode: exitFailure}, nil
	}

	if exitCode == 0 && spawnReserve != nil {
		if err := spawnReserve(hash); err != nil {
			return Result{}, err
		}
	}

	return Result{Hash: hash, ExitCode: exitCode}, nil
}

// buildLines locks st for the duration of enumeration, returning the
// formatted launcher lines newest-first and a map from the displayed
// index to the hash it names.
//
// Indices count down from the total, so the newest line (first
// written) carries the highest number and the oldest (last written)
// carries 1 — matching what the original picker's enumeration order
// produces, since it assigns indices as it walks newest-first.
func buildLines(st *store.Store) ([]string, map[uint64]uint64, error) {
	if err := st.Lock(); err != nil {
		return nil, nil, err
	}
	defer st.Unlock()

	total, err := st.Len()
	if err != nil {
		return nil, nil, err
	}
	if total == 0 {
		return nil, nil, nil
	}

	pad := len(strconv.Itoa(total))
	lines := make([]string, 0, total)
	idxToHash := make(map[uint64]uint64, total)

	idx := uint64(total)
	it := st.Iterate(store.NewestFirst)
	for {
		snip, ok := it.Next()
		if !ok {
			break
		}
		lines = append(lines, formatLine(idx, pad, snip))
		idxToHash[idx] = snip.Hash
		idx--
	}

	return lines, idxToHash, nil
}

func formatLine(idx uint64, pad int, snip store.Snip) string {
	preview := snip.Preview
	if len(preview) == store.PreviewMaxBytes {
		preview = preview[:store.PreviewMaxBytes-3] + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%*d] %s", pad, idx, preview)
	if snip.NrLines > 1 {
		fmt.Fprintf(&b, " (%d lines)", snip.NrLines)
	}
	return b.String()
}

// parseReplyIndex strips the leading "[", reads digits up to the
// closing "]", and parses them. Anything else about the reply
// (whitespace, the rest of the preview text) is ignored.
func parseReplyIndex(reply string) (uint64, bool) {
	reply = strings.TrimPrefix(reply, "[")
	end := strings.IndexByte(reply, ']')
	if end < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(reply[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
