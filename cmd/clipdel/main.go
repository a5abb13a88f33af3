//go:build linux

// Command clipdel removes stored clipboard entries whose preview
// matches a regular expression.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdown/clipmenu/internal/config"
	"github.com/cdown/clipmenu/internal/deleter"
	"github.com/cdown/clipmenu/internal/logging"
	"github.com/cdown/clipmenu/internal/store"
)

var (
	logLevel string
	dryRun   bool
	invert   bool
)

func main() {
	cmd := &cobra.Command{
		Use:           "clipdel [-d] [-v] <regex>",
		Short:         "Delete clipboard history entries matching a pattern",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "delete", "d", false, "actually delete matches instead of just printing them")
	cmd.Flags().BoolVarP(&invert, "invert", "v", false, "delete entries that do NOT match instead")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(pattern string) error {
	logger, err := logging.New("clipdel", logLevel)
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

	opts := deleter.Options{
		Pattern: pattern,
		Invert:  invert,
		// -d flags the command into "real" mode; without it DryRun is
		// set, so an unflagged run only prints matches.
		DryRun: !dryRun,
	}

	removed, err := deleter.Run(st, opts, os.Stdout)
	if err != nil {
		return err
	}

	logger.Debug("removal complete", zap.Int("removed", removed))
	return nil
}