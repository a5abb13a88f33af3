package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.MaxClips)
	require.Equal(t, 100, cfg.MaxClipsBatch)
	require.Equal(t, []string{"clipboard", "primary"}, cfg.Selections)
	require.Equal(t, []string{"clipboard"}, cfg.OwnSelections)
	require.Equal(t, "dmenu", cfg.Launcher)
	require.True(t, cfg.LauncherPassDmenuArgs)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipmenud.conf")
	contents := "max_clips 50\nmax_clips_batch 10\nselections clipboard primary secondary\nlauncher rofi\nown_clipboard true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.MaxClips)
	require.Equal(t, 10, cfg.MaxClipsBatch)
	require.Equal(t, []string{"clipboard", "primary", "secondary"}, cfg.Selections)
	require.Equal(t, "rofi", cfg.Launcher)
	require.True(t, cfg.OwnClipboard)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipmenud.conf")
	require.NoError(t, os.WriteFile(path, []byte("max_clips 50\n"), 0600))

	t.Setenv("CM_MAX_CLIPS", "77")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 77, cfg.MaxClips)
}

func TestInvalidSelectionRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipmenud.conf")
	require.NoError(t, os.WriteFile(path, []byte("selections clipboard bogus\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestRuntimeDirPrecedence(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("TMPDIR", "")
	require.Equal(t, "/run/user/1000", RuntimeDir(""))
	require.Equal(t, "/explicit", RuntimeDir("/explicit"))
}

func TestStoreRootIncludesVersionAndUID(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	root := StoreRoot("", 1000)
	require.Equal(t, "/run/user/1000/clipmenu.7.1000", root)
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("CM_CONFIG", "/explicit/clipmenu.conf")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/user")
	path, err := ConfigPath()
	require.NoError(t, err)
	require.Equal(t, "/explicit/clipmenu.conf", path)

	t.Setenv("CM_CONFIG", "")
	path, err = ConfigPath()
	require.NoError(t, err)
	require.Equal(t, "/xdg/clipmenu/clipmenu.conf", path)

	t.Setenv("XDG_CONFIG_HOME", "")
	path, err = ConfigPath()
	require.NoError(t, err)
	require.Equal(t, "/home/user/.config/clipmenu/clipmenu.conf", path)
}
