//go:build linux

package xproto

import (
	"encoding/binary"
	"fmt"

	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// selectionEventMask is every XFixes selection-notification subtype:
// ownership change, the owning window being destroyed, and the owning
// client disconnecting. All three are treated as "ownership changed"
// by callers.
const selectionEventMask = xfixes.SelectionEventMaskSetSelectionOwner |
	xfixes.SelectionEventMaskSelectionWindowDestroy |
	xfixes.SelectionEventMaskSelectionClientClose

// WatchSelection subscribes the connection's window to ownership
// change notifications for the given selection atom.
func (c *Conn) WatchSelection(selection xproto.Atom) error {
	return xfixes.SelectSelectionInputChecked(c.X, c.Window, selection, selectionEventMask).Check()
}

// ConvertSelection requests that selection be converted to UTF8_STRING
// and delivered into property on our window.
func (c *Conn) ConvertSelection(selection, property xproto.Atom) error {
	return xproto.ConvertSelectionChecked(
		c.X, c.Window, selection, c.Atoms.UTF8String, property, xproto.TimeCurrentTime,
	).Check()
}

// ReadProperty retrieves and deletes the named property's full value.
func (c *Conn) ReadProperty(property xproto.Atom) ([]byte, error) {
	const anyPropertyType = 0
	reply, err := xproto.GetProperty(c.X, true, c.Window, property, anyPropertyType, 0, ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("xproto: get property: %w", err)
	}
	if reply == nil {
		return nil, nil
	}
	return reply.Value, nil
}

// SetSelectionOwner asserts ownership of selection for our window.
func (c *Conn) SetSelectionOwner(selection xproto.Atom) error {
	return xproto.SetSelectionOwnerChecked(c.X, c.Window, selection, xproto.TimeCurrentTime).Check()
}

// ServeSelectionRequest answers a SelectionRequest event per the
// re-server contract: TARGETS lists {UTF8_STRING, STRING}, those two
// targets get payload, anything else is refused with property None. A
// SelectionNotify is always sent back to the requestor.
func (c *Conn) ServeSelectionRequest(ev xproto.SelectionRequestEvent, payload []byte) error {
	property := ev.Property
	if property == 0 {
		property = ev.Target
	}

	switch ev.Target {
	case c.Atoms.Targets:
		targets := []xproto.Atom{c.Atoms.UTF8String, c.Atoms.String}
		data := make([]byte, 4*len(targets))
		for i, a := range targets {
			binary.LittleEndian.PutUint32(data[i*4:], uint32(a))
		}
		if err := xproto.ChangePropertyChecked(
			c.X, xproto.PropModeReplace, ev.Requestor, property, xproto.AtomAtom, 32,
			uint32(len(targets)), data,
		).Check(); err != nil {
			return err
		}
	case c.Atoms.UTF8String, c.Atoms.String:
		if err := xproto.ChangePropertyChecked(
			c.X, xproto.PropModeReplace, ev.Requestor, property, ev.Target, 8,
			uint32(len(payload)), payload,
		).Check(); err != nil {
			return err
		}
	default:
		property = 0
	}

	return c.sendSelectionNotify(ev, property)
}

func (c *Conn) sendSelectionNotify(req xproto.SelectionRequestEvent, property xproto.Atom) error {
	notify := xproto.SelectionNotifyEvent{
		Time:      req.Time,
		Requestor: req.Requestor,
		Selection: req.Selection,
		Target:    req.Target,
		Property:  property,
	}
	return xproto.SendEventChecked(c.X, false, req.Requestor, xproto.EventMaskNoEvent, string(notify.Bytes())).Check()
}
