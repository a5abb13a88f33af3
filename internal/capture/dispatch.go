//go:build linux

package capture

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	xgbproto "github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	xp "github.com/cdown/clipmenu/internal/xproto"
)

// dispatch handles one X event. done reports whether it concluded a
// "get one clip" cycle (a property became ready, or a selection came
// back with no owner) — used by the initial per-selection probe in
// Setup; the steady-state Run loop ignores it and simply keeps going.
func (d *Daemon) dispatch(ev xgb.Event) (done bool, err error) {
	if owner, ok := xp.AsSelectionOwnerChange(ev); ok {
		return false, d.handleOwnerChange(owner)
	}

	if prop, ok := xp.AsPropertyNotify(ev); ok {
		if prop.State != xgbproto.PropertyNewValue {
			return false, nil
		}
		w, ok := d.watchForProperty(xp.Atom(prop.Atom))
		if !ok {
			return false, nil
		}
		return true, d.handlePropertyReady(w)
	}

	if notify, ok := xp.AsSelectionNotify(ev); ok {
		if notify.Property == 0 {
			d.logger.Debug("selection reports no current owner")
			return true, nil
		}
	}

	return false, nil
}

func (d *Daemon) watchForProperty(property xp.Atom) (watched, bool) {
	for _, w := range d.watches {
		if w.property == property {
			return w, true
		}
	}
	return watched{}, false
}

func (d *Daemon) watchForSelection(sel xp.Atom) (watched, bool) {
	for _, w := range d.watches {
		if w.selAtom == sel {
			return w, true
		}
	}
	return watched{}, false
}

// handleOwnerChange reacts to an XFixes ownership-change notification:
// unless the new owner is our own re-server or matches the configured
// ignore pattern, request conversion of the selection to UTF-8.
func (d *Daemon) handleOwnerChange(ev xfixes.SelectionNotifyEvent) error {
	w, ok := d.watchForSelection(xp.Atom(ev.Selection))
	if !ok {
		return nil
	}

	title := d.conn.WindowTitle(ev.Owner)
	if title == reserveWindowTitle {
		d.logger.Debug("ignoring clip from our own re-server window")
		return nil
	}
	if d.ignoreWindow != nil && d.ignoreWindow.MatchString(title) {
		d.logger.Debug("ignoring clip from ignored window", zap.String("title", title))
		return nil
	}

	d.logger.Debug("selection ownership changed",
		zap.String("selection", w.name),
		zap.String("owner_title", title),
	)

	return d.conn.ConvertSelection(w.selAtom, w.property)
}
