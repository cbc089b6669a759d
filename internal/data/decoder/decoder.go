// Package decoder reads whole log files, gunzipping rotated archives.
package decoder

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/penwyp/go-mc-playtime/internal/core/model"
)

// Open returns a reader over the decoded content of path. Names ending in
// .gz are decompressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", model.ErrRead, path, err)
	}
	if !IsCompressed(path) {
		return f, nil
	}

	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w %s: gzip: %v", model.ErrRead, path, err)
	}
	return &readCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
}

// Decode reads the complete text of path.
func Decode(path string) (string, error) {
	rc, err := Open(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w %s: %v", model.ErrRead, path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w %s: content is not valid UTF-8", model.ErrRead, path)
	}
	return string(data), nil
}

func IsCompressed(path string) bool {
	return strings.HasSuffix(path, model.CompressedSuffix)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if e := c.Close(); err == nil && e != nil {
			err = e
		}
	}
	return err
}
