package testfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTempDir creates a scratch directory and returns it with a cleanup
// func that fails the test if removal fails.
func NewTempDir(t *testing.T) (string, func()) {
	dir, err := os.MkdirTemp("", "gwiretest_")
	require.NoError(t, err)
	return dir, func() {
		require.NoError(t, os.RemoveAll(dir))
	}
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0700))
	require.NoError(t, os.WriteFile(p, data, 0600))
	return p
}
