package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"syscall"
)

// FileInfo identifies one version of a file on disk.
type FileInfo struct {
	ModTime     int64  `json:"modTime"`
	Size        int64  `json:"size"`
	Inode       uint64 `json:"inode"`
	Fingerprint string `json:"fingerprint"`
}

// fingerprintWindow is how many trailing bytes feed the fingerprint. Rotated
// logs are gzip streams, whose trailer already holds a CRC of the content.
const fingerprintWindow = 2048

// GetFileInfo stats path and fingerprints its tail. Linux and macOS only.
func GetFileInfo(path string) (*FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("failed to get file system information: %s", path)
	}

	fingerprint, err := fingerprintTail(file, stat.Size())
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime:     stat.ModTime().Unix(),
		Size:        stat.Size(),
		Inode:       uint64(sysStat.Ino),
		Fingerprint: fingerprint,
	}, nil
}

// Matches reports whether other describes the same file version.
func (fi *FileInfo) Matches(other *FileInfo) bool {
	if fi == nil || other == nil {
		return false
	}
	return *fi == *other
}

func fingerprintTail(file *os.File, size int64) (string, error) {
	readSize := int64(fingerprintWindow)
	if size < readSize {
		readSize = size
	}

	if _, err := file.Seek(-readSize, io.SeekEnd); err != nil {
		return "", err
	}

	data := make([]byte, readSize)
	if _, err := io.ReadFull(file, data); err != nil {
		return "", err
	}

	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)), nil
}
