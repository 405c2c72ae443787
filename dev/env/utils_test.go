package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	path, err := ResolvePath("/var/lib/ourvend/fleet.db")
	require.NoError(t, err)
	require.Equal(t, "/var/lib/ourvend/fleet.db", path)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)
	require.True(t, isWorkspaceRoot(root))

	path, err = ResolvePath("<dev_state>/screenshots")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "screenshots"), path)
}
