//go:build linux

// Command clipmenud is the clipboard capture daemon: it watches
// PRIMARY/SECONDARY/CLIPBOARD ownership changes and appends salient
// text to the shared store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/capture"
	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/logging"
	"github.com/cdown/clipmenu/internal/store"
	xp "github.com/cdown/clipmenu/internal/xproto"
)

var logLevel string

func main() {
	cmd := &cobra.Command{
		Use:           "clipmenud",
		Short:         "Clipboard capture daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := logging.New("clipmenud", logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfgPath, err := config.ConfigPath()
	if err != nil {
		logging.Fatal(logger, "resolve config path", zap.Error(err))
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Fatal(logger, "load config", zap.Error(err))
	}

	root := config.StoreRoot(cfg.CMDir, os.Getuid())
	if err := os.MkdirAll(root, 0700); err != nil {
		logging.Fatal(logger, "create store root", zap.Error(err))
	}

	indexFile, err := os.OpenFile(config.IndexPath(root), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		logging.Fatal(logger, "open index file", zap.Error(err))
	}
	defer indexFile.Close()

	contentDir, err := os.Open(root)
	if err != nil {
		logging.Fatal(logger, "open content directory", zap.Error(err))
	}
	defer contentDir.Close()

	st, err := store.Open(indexFile, int(contentDir.Fd()))
	if err != nil {
		logging.Fatal(logger, "open store", zap.Error(err))
	}
	defer st.Close()

	conn, err := xp.DialRoot()
	if err != nil {
		logging.Fatal(logger, "connect to X display", zap.Error(err))
	}
	defer conn.Close()

	d, err := capture.New(conn, st, cfg, logger, config.StatusPath(root))
	if err != nil {
		logging.Fatal(logger, "build daemon", zap.Error(err))
	}

	if err := d.Setup(); err != nil {
		logging.Fatal(logger, "initialize watches", zap.Error(err))
	}

	// oneshot probes every configured selection's current owner via
	// Setup and exits without entering the event loop.
	if cfg.Oneshot != 0 {
		logger.Debug("oneshot set, exiting after initial probe")
		return nil
	}

	if sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		logger.Debug("sd_notify readiness failed", zap.Error(err))
	} else if sent {
		logger.Debug("notified systemd readiness")
	}

	// SdWatchdogEnabled returns the unit's WatchdogSec verbatim (0 if
	// unset); callers are required to ping at less than that interval; we
	// use half of it, the interval systemd itself recommends.
	if interval, err := sddaemon.SdWatchdogEnabled(false); err != nil {
		logger.Debug("sd_watchdog_enabled failed", zap.Error(err))
	} else if interval > 0 {
		d.SetWatchdogInterval(interval / 2)
		logger.Debug("armed systemd watchdog pings", zap.Duration("interval", interval/2))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}