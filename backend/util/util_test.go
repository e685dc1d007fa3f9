package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.toml")
	dst := filepath.Join(dir, "config.toml.bak")
	require.NoError(t, os.WriteFile(src, []byte("[Notification\n"), 0600))
	require.NoError(t, os.WriteFile(dst, []byte("an older, longer backup"), 0644))

	require.NoError(t, CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "[Notification\n", string(got))

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}
