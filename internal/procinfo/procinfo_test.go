package procinfo

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCmdline(t *testing.T, root string, pid int, cmdline string) {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0644))
}

func TestProcFS_Argv(t *testing.T) {
	root := t.TempDir()
	writeCmdline(t, root, 1234, "kitty\x00--single-instance\x00")
	writeCmdline(t, root, 99, "")

	p, err := NewWithMount(root)
	require.NoError(t, err)

	argv, err := p.Argv(1234)
	require.NoError(t, err)
	assert.Equal(t, []string{"kitty", "--single-instance"}, argv)

	_, err = p.Argv(4321)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.Argv(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.Argv(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatic_Argv(t *testing.T) {
	s := Static{7: {"foot"}}

	argv, err := s.Argv(7)
	require.NoError(t, err)
	assert.Equal(t, []string{"foot"}, argv)

	_, err = s.Argv(8)
	assert.ErrorIs(t, err, ErrNotFound)
}
