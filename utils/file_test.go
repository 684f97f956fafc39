package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads/")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "crests/porto/a.png", crestFile(t))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/crests/porto/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "crests", "porto", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalUploaderStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "../../escape.png", crestFile(t))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	assert.FileExists(t, filepath.Join(dir, "escape.png"))
}
