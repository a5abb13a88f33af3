//go:build linux

package capture

import (
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/store"
)

// reserveWindowTitle is the title the re-server gives its window, used
// so the daemon can recognize and ignore its own ownership changes.
const reserveWindowTitle = "clipserve"

// handlePropertyReady fires once a requested selection-to-UTF8
// conversion has landed in its destination property: read it back,
// discard whitespace-only payloads, store salient ones (applying the
// partial-merge rule), enforce the size bound, and re-serve if this
// selection is configured to own the clipboard afterwards.
func (d *Daemon) handlePropertyReady(w watched) error {
	payload, err := d.conn.ReadProperty(w.property)
	if err != nil {
		return err
	}

	if !isSalient(payload) {
		d.logger.Debug("discarding whitespace-only clip", zap.String("selection", w.name))
		return nil
	}

	hash, err := d.storeClip(payload)
	if err != nil {
		return err
	}

	if err := d.maybeTrim(); err != nil {
		return err
	}

	// The re-server is spawned only when both this selection is listed
	// in own_selections and own_clipboard is set. Once running, it takes
	// ownership of both PRIMARY and CLIPBOARD.
	if w.owned && d.cfg.OwnClipboard {
		if err := d.SpawnReserve(hash); err != nil {
			d.logger.Warn("failed to spawn re-server", zap.Error(err))
		}
	}

	return nil
}

// isSalient reports whether payload has at least one non-whitespace
// byte.
func isSalient(payload []byte) bool {
	for _, b := range payload {
		if !unicode.IsSpace(rune(b)) {
			return true
		}
	}
	return false
}

// isPossiblePartial reports whether either string is a prefix or a
// suffix of the other. Some applications (browsers expanding a drag
// selection, certain terminal emulators) republish every intermediate
// selection state; checking both directions catches both
// left-to-right and right-to-left drags.
func isPossiblePartial(a, b string) bool {
	shorter, longer := a, b
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}

	if strings.HasPrefix(longer, shorter) {
		return true
	}
	return strings.HasSuffix(longer, shorter)
}

// storeClip appends payload to the store, replacing the newest entry
// in place instead when it looks like a partial of the last capture
// made within the merge window.
func (d *Daemon) storeClip(payload []byte) (uint64, error) {
	text := string(payload)
	now := time.Now()

	var (
		hash uint64
		err  error
	)
	if d.lastText != "" && now.Sub(d.lastTime) <= partialMaxAge && isPossiblePartial(d.lastText, text) {
		d.logger.Debug("possible partial of last clip, replacing")
		hash, err = d.store.Replace(store.NewestFirst, 0, payload)
	} else {
		hash, err = d.store.Add(payload)
	}
	if err != nil {
		return 0, err
	}

	d.lastText = text
	d.lastTime = now

	return hash, nil
}

// maybeTrim trims the store down to max_clips once it grows past
// max_clips_batch, so ordinary appends don't each pay for a resize.
func (d *Daemon) maybeTrim() error {
	n, err := d.store.Len()
	if err != nil {
		return err
	}
	if n > d.cfg.MaxClipsBatch {
		_, err := d.store.Trim(store.NewestFirst, uint64(d.cfg.MaxClips))
		return err
	}
	return nil
}
