//go:build linux

package xproto

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// AsSelectionOwnerChange type-asserts an XFixes selection notification
// (the ownership-change, window-destroy, or client-close subtypes,
// all subscribed to as one mask by WatchSelection).
func AsSelectionOwnerChange(ev xgb.Event) (xfixes.SelectionNotifyEvent, bool) {
	e, ok := ev.(xfixes.SelectionNotifyEvent)
	return e, ok
}

// AsSelectionRequest type-asserts a core SelectionRequest event.
func AsSelectionRequest(ev xgb.Event) (xproto.SelectionRequestEvent, bool) {
	e, ok := ev.(xproto.SelectionRequestEvent)
	return e, ok
}

// AsSelectionNotify type-asserts a core SelectionNotify event (the
// reply to a ConvertSelection request we issued).
func AsSelectionNotify(ev xgb.Event) (xproto.SelectionNotifyEvent, bool) {
	e, ok := ev.(xproto.SelectionNotifyEvent)
	return e, ok
}

// AsSelectionClear type-asserts a core SelectionClear event (another
// owner has taken over a selection we used to own).
func AsSelectionClear(ev xgb.Event) (xproto.SelectionClearEvent, bool) {
	e, ok := ev.(xproto.SelectionClearEvent)
	return e, ok
}

// AsPropertyNotify type-asserts a core PropertyNotify event.
func AsPropertyNotify(ev xgb.Event) (xproto.PropertyNotifyEvent, bool) {
	e, ok := ev.(xproto.PropertyNotifyEvent)
	return e, ok
}
