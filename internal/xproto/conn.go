//go:build linux

// Package xproto wraps github.com/BurntSushi/xgb (plus its xproto and
// xfixes extensions) with the narrow slice of the X11 protocol the
// clipmenu programs need: selection ownership tracking via XFixes,
// selection conversion and serving, and window-title lookup.
package xproto

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// Conn is a connected X11 display plus the interned atoms this package
// cares about and the window used as this process's selection
// requestor/owner identity.
type Conn struct {
	X      *xgb.Conn
	Screen *xproto.ScreenInfo
	Window xproto.Window
	Atoms  Atoms
}

func dial() (*xgb.Conn, *xproto.ScreenInfo, Atoms, error) {
	xc, err := xgb.NewConn()
	if err != nil {
		return nil, nil, Atoms{}, fmt.Errorf("xproto: connect to X display: %w", err)
	}

	if err := xfixes.Init(xc); err != nil {
		xc.Close()
		return nil, nil, Atoms{}, fmt.Errorf("xproto: init xfixes: %w", err)
	}
	if _, err := xfixes.QueryVersion(xc, 5, 0).Reply(); err != nil {
		xc.Close()
		return nil, nil, Atoms{}, fmt.Errorf("xproto: xfixes query-version: %w", err)
	}

	screen := xproto.Setup(xc).DefaultScreen(xc)

	atoms, err := internAtoms(xc)
	if err != nil {
		xc.Close()
		return nil, nil, Atoms{}, err
	}

	return xc, screen, atoms, nil
}

// DialRoot opens the default X display and uses the root window as
// this connection's identity, the same way the capture daemon does: it
// only needs PropertyNotify delivery and a requestor window for
// ConvertSelection, not a window of its own.
func DialRoot() (*Conn, error) {
	xc, screen, atoms, err := dial()
	if err != nil {
		return nil, err
	}

	err = xproto.ChangeWindowAttributesChecked(
		xc, screen.Root, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		xc.Close()
		return nil, fmt.Errorf("xproto: select property notify on root: %w", err)
	}

	return &Conn{X: xc, Screen: screen, Window: screen.Root, Atoms: atoms}, nil
}

// DialWindow opens the default X display and creates a dedicated 1x1
// window titled title, used by the re-server so that the capture
// daemon can recognize and ignore its own selection ownership.
func DialWindow(title string) (*Conn, error) {
	xc, screen, atoms, err := dial()
	if err != nil {
		return nil, err
	}

	win, err := xproto.NewWindowId(xc)
	if err != nil {
		xc.Close()
		return nil, fmt.Errorf("xproto: allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		xc, screen.RootDepth, win, screen.Root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		xc.Close()
		return nil, fmt.Errorf("xproto: create window: %w", err)
	}

	c := &Conn{X: xc, Screen: screen, Window: win, Atoms: atoms}

	if err := c.setTitle(title); err != nil {
		xc.Close()
		return nil, err
	}

	return c, nil
}

// Close tears down the X connection. The window and any selections it
// owns are released by the server.
func (c *Conn) Close() {
	c.X.Close()
}

func (c *Conn) setTitle(title string) error {
	return xproto.ChangePropertyChecked(
		c.X, xproto.PropModeReplace, c.Window,
		c.Atoms.NetWMName, c.Atoms.UTF8String, 8,
		uint32(len(title)), []byte(title),
	).Check()
}
