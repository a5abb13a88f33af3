//go:build linux

// Command clipctl enables, disables, toggles, or reports the capture
// daemon's running state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/controller"
	"github.com/cdown/clipmenu/internal/logging"
)

var logLevel string

func main() {
	cmd := &cobra.Command{
		Use:           "clipctl <enable|disable|toggle|status>",
		Short:         "Control the clipboard capture daemon",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(mode string) error {
	logger, err := logging.New("clipctl", logLevel)
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
	statusPath := config.StatusPath(root)

	pid, err := controller.FindDaemonPID()
	if err != nil {
		return err
	}

	switch mode {
	case "status":
		enabled, err := controller.IsEnabled(statusPath)
		if err != nil {
			return err
		}
		if enabled {
			fmt.Println("enabled")
		} else {
			fmt.Println("disabled")
		}
		return nil

	case "enable":
		return controller.SetEnabled(pid, statusPath, true)

	case "disable":
		return controller.SetEnabled(pid, statusPath, false)

	case "toggle":
		enabled, err := controller.IsEnabled(statusPath)
		if err != nil {
			return err
		}
		return controller.SetEnabled(pid, statusPath, !enabled)

	default:
		return fmt.Errorf("clipctl: unknown command %q (want enable, disable, toggle, or status)", mode)
	}
}