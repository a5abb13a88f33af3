//go:build linux

package xproto

import "github.com/BurntSushi/xgb/xproto"

// IsBenign reports whether an X protocol error is one this daemon
// expects to see in ordinary operation and should log rather than
// treat as fatal: a request racing a window's destruction. This
// mirrors the original daemon's Xlib error handler, which whitelisted
// BadWindow unconditionally and whitelisted BadMatch/BadDrawable/
// BadAccess only for specific request codes (X_SetInputFocus,
// X_PolyText8, X_PolyFillRectangle, X_PolySegment, X_ConfigureWindow,
// X_GrabButton, X_GrabKey, X_CopyArea) this package never issues —
// it only sends CreateWindow, ChangeWindowAttributes, ConvertSelection,
// SetSelectionOwner, ChangeProperty, SendEvent, InternAtom, GetProperty,
// and the XFixes QueryVersion and SelectSelectionInput requests. Every other error is an
// invariant violation and must not be swallowed.
func IsBenign(err error) bool {
	_, ok := err.(xproto.WindowError)
	return ok
}
