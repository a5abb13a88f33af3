//go:build linux

// Package deleter implements bulk removal of stored entries whose
// preview matches a regular expression.
package deleter

import (
	"fmt"
	"io"
	"regexp"

	"github.com/cdown/clipmenu/internal/store"
)

// Options controls one removal pass.
type Options struct {
	// Pattern is an extended regular expression tested against each
	// snip's preview.
	Pattern string
	// Invert negates the match test: entries NOT matching Pattern are
	// removed instead.
	Invert bool
	// DryRun, when true, prints what would be removed without
	// actually removing anything.
	DryRun bool
}

// Run compiles opts.Pattern and removes every matching entry from st,
// oldest first, printing each removed (or would-be-removed) preview to
// w. It returns the number of entries actually removed (always 0 in
// dry-run mode).
func Run(st *store.Store, opts Options, w io.Writer) (int, error) {
	re, err := regexp.Compile(opts.Pattern)
	if err != nil {
		return 0, fmt.Errorf("deleter: invalid regex: %w", err)
	}

	removed, err := st.Remove(store.OldestFirst, func(snip store.Snip) store.Action {
		matched := re.MatchString(snip.Preview)
		if opts.Invert {
			matched = !matched
		}
		if !matched {
			return store.ActionKeep
		}

		fmt.Fprintln(w, snip.Preview)
		if opts.DryRun {
			return store.ActionKeep
		}
		return store.ActionRemove
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}
