//go:build linux

package xproto

import "github.com/BurntSushi/xgb/xproto"

// WindowTitle fetches a window's title, preferring the EWMH
// _NET_WM_NAME (UTF8_STRING) property and falling back to the legacy
// WM_NAME (STRING) property. Returns "" if neither is set, which is
// common for override-redirect and short-lived windows; callers treat
// that as "does not match the ignore pattern" rather than an error.
func (c *Conn) WindowTitle(win xproto.Window) string {
	if title, ok := c.getTextProperty(win, c.Atoms.NetWMName, c.Atoms.UTF8String); ok {
		return title
	}
	if title, ok := c.getTextProperty(win, c.Atoms.WMName, xproto.AtomString); ok {
		return title
	}
	return ""
}

func (c *Conn) getTextProperty(win xproto.Window, property, typ xproto.Atom) (string, bool) {
	reply, err := xproto.GetProperty(c.X, false, win, property, typ, 0, ^uint32(0)).Reply()
	if err != nil || reply == nil || reply.ValueLen == 0 {
		return "", false
	}
	return string(reply.Value), true
}
