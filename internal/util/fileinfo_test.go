package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2024-01-01-1.log")
	require.NoError(t, os.WriteFile(path, []byte("[12:00:00] hello\n"), 0644))

	info, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(17), info.Size)
	assert.NotZero(t, info.Inode)
	assert.Len(t, info.Fingerprint, 8)

	again, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.True(t, info.Matches(again))
}

func TestGetFileInfoDetectsTailChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	content := strings.Repeat("a", 4096)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	before, err := GetFileInfo(path)
	require.NoError(t, err)

	changed := content[:4095] + "b"
	require.NoError(t, os.WriteFile(path, []byte(changed), 0644))
	after, err := GetFileInfo(path)
	require.NoError(t, err)

	assert.Equal(t, before.Size, after.Size)
	assert.NotEqual(t, before.Fingerprint, after.Fingerprint)
	assert.False(t, before.Matches(after))
}

func TestGetFileInfoEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	info, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size)
	assert.Equal(t, "00000000", info.Fingerprint)
}

func TestGetFileInfoMissing(t *testing.T) {
	_, err := GetFileInfo(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFileInfoMatchesNil(t *testing.T) {
	var nilInfo *FileInfo
	assert.False(t, nilInfo.Matches(&FileInfo{}))
	assert.False(t, (&FileInfo{}).Matches(nil))
}
