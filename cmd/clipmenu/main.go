//go:build linux

// Command clipmenu is the interactive picker: it hands the stored
// clipboard history to a launcher subprocess and restores whichever
// entry the user picks.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/logging"
	"github.com/cdown/clipmenu/internal/selector"
	"github.com/cdown/clipmenu/internal/store"
)

var logLevel string

func main() {
	cmd := &cobra.Command{
		Use:                "clipmenu",
		Short:              "Interactive clipboard history picker",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			extraArgs, level := splitLogLevel(args)
			logLevel = level
			return run(extraArgs)
		},
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// splitLogLevel pulls a leading "--log-level <level>" pair out of args,
// forwarding everything else to the launcher untouched: per the CLI
// surface, all of the selector's own argv is meant for the launcher, so
// it can't be parsed away by a conventional flag set.
func splitLogLevel(args []string) ([]string, string) {
	level := "info"
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if i == 0 && args[i] == "--log-level" && i+1 < len(args) {
			level = args[i+1]
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out, level
}

func run(extraArgs []string) error {
	logger, err := logging.New("clipmenu", logLevel)
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

	indexFile, err := os.OpenFile(config.IndexPath(root), os.O_RDWR, 0600)
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

	result, err := selector.Run(st, cfg.Launcher, cfg.LauncherPassDmenuArgs, extraArgs, spawnReserve)
	if err != nil {
		return err
	}

	os.Exit(result.ExitCode)
	return nil
}

// spawnReserve execs the clipserve binary for hash and does not wait
// for it: the re-server outlives the picker, serving the clipboard
// until both PRIMARY and CLIPBOARD have been reclaimed.
func spawnReserve(hash uint64) error {
	path, err := exec.LookPath("clipserve")
	if err != nil {
		return fmt.Errorf("clipmenu: clipserve not found in PATH: %w", err)
	}

	cmd := exec.Command(path, strconv.FormatUint(hash, 10))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("clipmenu: start clipserve: %w", err)
	}

	go cmd.Wait() //nolint:errcheck
	return nil
}