package launcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgvRofi(t *testing.T) {
	argv := Argv("rofi", true, []string{"-i"})
	require.Equal(t, []string{"rofi", "--", "-dmenu", "-p", "clipmenu", "-l", "20", "-i"}, argv)
}

func TestArgvCustomNoDmenuArgs(t *testing.T) {
	argv := Argv("fzf-menu", false, nil)
	require.Equal(t, []string{"fzf-menu"}, argv)
}

func TestArgvDmenuDefault(t *testing.T) {
	argv := Argv("dmenu", true, nil)
	require.Equal(t, []string{"dmenu", "-p", "clipmenu", "-l", "20"}, argv)
}
