//go:build linux

// Command clipserve is the re-server: it takes over ownership of
// PRIMARY and CLIPBOARD for a single content hash just long enough for
// the next requester to read it, so the originating application can
// close without losing the clipboard.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/logging"
	"github.com/cdown/clipmenu/internal/reserve"
	"github.com/cdown/clipmenu/internal/store"
)

var logLevel string

func main() {
	cmd := &cobra.Command{
		Use:           "clipserve <hash>",
		Short:         "Re-assert ownership of a stored clipboard entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("clipserve: invalid hash %q: %w", args[0], err)
			}
			return run(hash)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(hash uint64) error {
	logger, err := logging.New("clipserve", logLevel)
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

	content, err := st.ContentGet(hash)
	if err != nil {
		return fmt.Errorf("clipserve: hash %d not found: %w", hash, err)
	}
	defer content.Release()

	return reserve.Serve(context.Background(), content.Bytes(), logger)
}