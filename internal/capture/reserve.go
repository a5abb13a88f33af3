//go:build linux

package capture

import (
	"fmt"
	"os/exec"
	"strconv"
)

// spawnReserveBinary execs the clipserve binary for hash and reaps it
// in the background once it exits, the idiomatic Go equivalent of the
// original daemon's "ignore SIGCHLD" fire-and-forget child handling.
func spawnReserveBinary(hash uint64) error {
	path, err := exec.LookPath("clipserve")
	if err != nil {
		return fmt.Errorf("capture: clipserve not found in PATH: %w", err)
	}

	cmd := exec.Command(path, strconv.FormatUint(hash, 10))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("capture: start clipserve: %w", err)
	}

	go cmd.Wait() //nolint:errcheck

	return nil
}
