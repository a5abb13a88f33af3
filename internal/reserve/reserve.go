//go:build linux

// Package reserve implements the re-server: a short-lived process that
// takes over ownership of PRIMARY and CLIPBOARD just long enough to
// serve the payload to whichever application asks for it next, so the
// selection survives the originating application closing.
package reserve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	xp "github.com/cdown/clipmenu/internal/xproto"
)

// reserveWindowTitle is the fixed title this process's window carries,
// used by the capture daemon to recognize and ignore its own
// ownership changes.
const reserveWindowTitle = "clipserve"

// initialRefs is the number of selections the re-server starts out
// owning (PRIMARY and CLIPBOARD); it exits once both have been lost.
const initialRefs = 2

// Serve opens its own X connection, asserts ownership of PRIMARY and
// CLIPBOARD, and answers SelectionRequest events with payload until
// both selections have been relinquished (or ctx is cancelled).
func Serve(ctx context.Context, payload []byte, logger *zap.Logger) error {
	conn, err := xp.DialWindow(reserveWindowTitle)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetSelectionOwner(conn.Atoms.Primary); err != nil {
		return fmt.Errorf("reserve: own PRIMARY: %w", err)
	}
	if err := conn.SetSelectionOwner(conn.Atoms.Clipboard); err != nil {
		return fmt.Errorf("reserve: own CLIPBOARD: %w", err)
	}

	refs := initialRefs
	events := conn.Events()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case item, ok := <-events:
			if !ok {
				return fmt.Errorf("reserve: X connection closed")
			}
			if item.Err != nil {
				if !xp.IsBenign(item.Err) {
					logger.Warn("X protocol error", zap.Error(item.Err))
				}
				continue
			}

			if req, ok := xp.AsSelectionRequest(item.Event); ok {
				if err := conn.ServeSelectionRequest(req, payload); err != nil {
					logger.Warn("failed to serve selection request", zap.Error(err))
				}
				continue
			}

			if _, ok := xp.AsSelectionClear(item.Event); ok {
				refs--
				logger.Debug("selection cleared", zap.Int("refs_remaining", refs))
				if refs <= 0 {
					return nil
				}
			}
		}
	}
}
