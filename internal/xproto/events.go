//go:build linux

package xproto

import "github.com/BurntSushi/xgb"

// NextEvent blocks for the next X event or protocol error. Used for
// the synchronous "convert and wait for exactly one reply" sequence of
// the capture daemon's initial per-selection probe.
func (c *Conn) NextEvent() (xgb.Event, xgb.Error) {
	return c.X.WaitForEvent()
}

// Events starts a goroutine relaying every event and protocol error
// from the connection onto a channel, so the caller can multiplex it
// in a select alongside a signal channel. The goroutine exits when the
// connection is closed.
func (c *Conn) Events() <-chan EventOrError {
	ch := make(chan EventOrError)
	go func() {
		defer close(ch)
		for {
			ev, err := c.X.WaitForEvent()
			if ev == nil && err == nil {
				return
			}
			ch <- EventOrError{Event: ev, Err: err}
		}
	}()
	return ch
}

// EventOrError is one item relayed by Events: either a decoded X event
// or a protocol-level error (never both).
type EventOrError struct {
	Event xgb.Event
	Err   xgb.Error
}
