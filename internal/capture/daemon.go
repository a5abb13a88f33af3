//go:build linux

// Package capture drives the per-selection Idle -> Converting -> Ready
// state machine: it watches PRIMARY/SECONDARY/CLIPBOARD ownership via
// XFixes, converts ownership changes to UTF-8 text, applies the
// partial-merge and salience rules, stores the result, enforces the
// store's size bound, and spawns the re-server when configured to.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/store"
	xp "github.com/cdown/clipmenu/internal/xproto"
)

// partialMaxAge bounds how long ago the previous capture must have
// happened for a new one to be considered its partial-merge partner.
const partialMaxAge = 2 * time.Second

// watched is the per-selection state the daemon tracks: its atom, the
// destination property conversions are requested into, and whether
// ownership of it (once captured) should trigger a re-serve.
type watched struct {
	name     string
	selAtom  xp.Atom
	property xp.Atom
	owned    bool
}

// Daemon is the capture state machine for one process. It is not safe
// for concurrent use; Run drives its own single-threaded event loop, as
// the original daemon does.
type Daemon struct {
	conn   *xp.Conn
	store  *store.Store
	cfg    *config.Config
	logger *zap.Logger

	statusPath string
	enabled    bool

	watches []watched

	lastText string
	lastTime time.Time

	ignoreWindow *regexp.Regexp

	// SpawnReserve launches the re-server for hash. Replaceable in
	// tests; the production default execs the clipserve binary.
	SpawnReserve func(hash uint64) error

	// watchdogInterval is how often Run pings the systemd watchdog.
	// Zero disables the ticker (no WATCHDOG_USEC set in the unit).
	watchdogInterval time.Duration

	// WatchdogNotify pings the systemd watchdog. Replaceable in tests;
	// the production default calls sd_notify(WATCHDOG=1).
	WatchdogNotify func() error
}

// New builds a Daemon from an already-open store and X connection. The
// caller is responsible for closing both after Run returns.
func New(conn *xp.Conn, st *store.Store, cfg *config.Config, logger *zap.Logger, statusPath string) (*Daemon, error) {
	d := &Daemon{
		conn:         conn,
		store:        st,
		cfg:          cfg,
		logger:       logger,
		statusPath:   statusPath,
		enabled:      true,
		SpawnReserve: spawnReserveBinary,
		WatchdogNotify: func() error {
			_, err := sddaemon.SdNotify(false, sddaemon.SdNotifyWatchdog)
			return err
		},
	}

	if cfg.IgnoreWindow != "" {
		re, err := regexp.Compile(cfg.IgnoreWindow)
		if err != nil {
			return nil, fmt.Errorf("capture: ignore_window regex: %w", err)
		}
		d.ignoreWindow = re
	}

	for _, name := range []string{"primary", "secondary", "clipboard"} {
		if !config.Has(cfg.Selections, name) {
			continue
		}
		d.watches = append(d.watches, watched{
			name:     name,
			selAtom:  conn.Atoms.SelectionAtom(name),
			property: conn.Atoms.DestProperty(name),
			owned:    config.Has(cfg.OwnSelections, name),
		})
	}

	return d, nil
}

// SetWatchdogInterval arms the systemd watchdog ping in Run. Pass 0 (the
// default) to leave it disabled.
func (d *Daemon) SetWatchdogInterval(interval time.Duration) {
	d.watchdogInterval = interval
}

func (d *Daemon) writeStatus() {
	var b byte = '0'
	if d.enabled {
		b = '1'
	}
	if err := os.WriteFile(d.statusPath, []byte{b}, 0600); err != nil {
		d.logger.Warn("failed to update status file", zap.Error(err))
	}
}

// Setup subscribes to every configured selection and probes its
// initial ownership state, mirroring setup_watches: each probe blocks
// until that selection's conversion either succeeds or is nacked,
// before moving on to the next.
func (d *Daemon) Setup() error {
	d.writeStatus()

	for _, w := range d.watches {
		if err := d.conn.WatchSelection(w.selAtom); err != nil {
			return fmt.Errorf("capture: watch selection %s: %w", w.name, err)
		}

		d.logger.Debug("probing initial selection value", zap.String("selection", w.name))
		if err := d.conn.ConvertSelection(w.selAtom, w.property); err != nil {
			return fmt.Errorf("capture: convert selection %s: %w", w.name, err)
		}

		if err := d.probeOne(); err != nil {
			return err
		}
	}

	return nil
}

// probeOne blocks on raw X events (no signal multiplexing) until either
// a property-notify for a storage atom arrives or a selection-notify
// with no owner does, processing exactly one outcome.
func (d *Daemon) probeOne() error {
	for {
		ev, xerr := d.conn.NextEvent()
		if xerr != nil {
			if err := d.logXError(xerr); err != nil {
				return err
			}
			continue
		}
		if ev == nil {
			return fmt.Errorf("capture: X connection closed during probe")
		}
		if done, err := d.dispatch(ev); done {
			return err
		}
	}
}

// Run processes selection and signal events until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	events := d.conn.Events()

	// A nil ticker channel blocks forever, so watchdog pings stay
	// opt-in: they only join the select once a unit advertises
	// WATCHDOG_USEC and main wires the interval in via
	// SetWatchdogInterval.
	var watchdogC <-chan time.Time
	if d.watchdogInterval > 0 {
		ticker := time.NewTicker(d.watchdogInterval)
		defer ticker.Stop()
		watchdogC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sig := <-sigCh:
			d.handleSignal(sig)

		case <-watchdogC:
			if err := d.WatchdogNotify(); err != nil {
				d.logger.Debug("sd_notify watchdog ping failed", zap.Error(err))
			}

		case item, ok := <-events:
			if !ok {
				return fmt.Errorf("capture: X connection closed")
			}
			if item.Err != nil {
				if err := d.logXError(item.Err); err != nil {
					return err
				}
				continue
			}
			if !d.enabled {
				continue
			}
			if _, err := d.dispatch(item.Event); err != nil {
				d.logger.Warn("error handling X event", zap.Error(err))
			}
		}
	}
}

func (d *Daemon) handleSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		d.enabled = false
		d.logger.Debug("clipboard collection disabled by signal")
	case syscall.SIGUSR2:
		d.enabled = true
		d.logger.Debug("clipboard collection enabled by signal")
	}
	d.writeStatus()
}

// logXError logs a protocol error encountered while waiting for X
// events. Benign errors (a request racing a window's destruction) are
// logged at debug level and swallowed; anything else is an invariant
// violation and is returned so the caller can abort the daemon.
func (d *Daemon) logXError(err error) error {
	if xp.IsBenign(err) {
		d.logger.Debug("suppressed X protocol error", zap.Error(err))
		return nil
	}
	d.logger.Error("fatal X protocol error", zap.Error(err))
	return fmt.Errorf("capture: fatal X protocol error: %w", err)
}
