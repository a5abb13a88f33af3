//go:build linux

package xproto

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Atom re-exports xgb/xproto's atom type so callers outside this
// package never need to import xgb/xproto directly just to hold one.
type Atom = xproto.Atom

// Atoms is the fixed table of atoms every clipmenu program interns up
// front, rather than interning on demand, so the identifiers are known
// before the first selection event can arrive.
type Atoms struct {
	Primary   xproto.Atom
	Secondary xproto.Atom
	Clipboard xproto.Atom

	Targets    xproto.Atom
	UTF8String xproto.Atom
	String     xproto.Atom

	CurPrimary   xproto.Atom
	CurSecondary xproto.Atom
	CurClipboard xproto.Atom

	NetWMName xproto.Atom
	WMName    xproto.Atom
}

// SelectionAtom maps a selection name ("primary", "secondary",
// "clipboard") to its interned atom.
func (a Atoms) SelectionAtom(name string) xproto.Atom {
	switch name {
	case "primary":
		return a.Primary
	case "secondary":
		return a.Secondary
	case "clipboard":
		return a.Clipboard
	default:
		return 0
	}
}

// DestProperty maps a selection name to the property the daemon asks
// conversions to be written into.
func (a Atoms) DestProperty(name string) xproto.Atom {
	switch name {
	case "primary":
		return a.CurPrimary
	case "secondary":
		return a.CurSecondary
	case "clipboard":
		return a.CurClipboard
	default:
		return 0
	}
}

func internAtoms(xc *xgb.Conn) (Atoms, error) {
	names := []string{
		"PRIMARY", "SECONDARY", "CLIPBOARD",
		"TARGETS", "UTF8_STRING", "STRING",
		"CLIPMENUD_CUR_PRIMARY", "CLIPMENUD_CUR_SECONDARY", "CLIPMENUD_CUR_CLIPBOARD",
		"_NET_WM_NAME", "WM_NAME",
	}

	resolved := make(map[string]xproto.Atom, len(names))
	for _, name := range names {
		reply, err := xproto.InternAtom(xc, false, uint16(len(name)), name).Reply()
		if err != nil {
			return Atoms{}, err
		}
		resolved[name] = reply.Atom
	}

	return Atoms{
		Primary:      resolved["PRIMARY"],
		Secondary:    resolved["SECONDARY"],
		Clipboard:    resolved["CLIPBOARD"],
		Targets:      resolved["TARGETS"],
		UTF8String:   resolved["UTF8_STRING"],
		String:       resolved["STRING"],
		CurPrimary:   resolved["CLIPMENUD_CUR_PRIMARY"],
		CurSecondary: resolved["CLIPMENUD_CUR_SECONDARY"],
		CurClipboard: resolved["CLIPMENUD_CUR_CLIPBOARD"],
		NetWMName:    resolved["_NET_WM_NAME"],
		WMName:       resolved["WM_NAME"],
	}, nil
}
