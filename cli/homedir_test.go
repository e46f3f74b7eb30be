package cli

import (
	"path"
	"testing"

	"graphwire/config"
	"graphwire/testutil/testfs"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestInitHomeDir(t *testing.T) {
	tmp, done := testfs.NewTempDir(t)
	defer done()

	cmd := &cobra.Command{Use: "init"}
	cmd.Flags().String(FlagHome, path.Join(tmp, "home"), "")

	dir, err := InitHomeDir(cmd)
	require.NoError(t, err)
	require.Equal(t, path.Join(tmp, "home"), dir)
	require.NoError(t, config.EnsureHomeDir(dir))

	_, err = InitHomeDir(cmd)
	require.Error(t, err)
}
