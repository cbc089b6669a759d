package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/util"
)

// LogScanner lists the server log files of one directory.
type LogScanner struct {
	baseDir       string
	currentPrefix string
}

// NewLogScanner creates a new LogScanner instance
func NewLogScanner(baseDir string) *LogScanner {
	return &LogScanner{
		baseDir:       baseDir,
		currentPrefix: model.CurrentLogPrefix,
	}
}

// Scan returns the paths of rotated and current logs in name order. Rotated
// names start with their date, so name order is chronological, and the
// current log sorts after every dated one.
func (s *LogScanner) Scan() ([]string, error) {
	start := time.Now()
	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", model.ErrDirectory, s.baseDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !s.isFile(entry) {
			continue
		}
		if s.Qualifies(entry.Name()) {
			names = append(names, entry.Name())
		} else {
			util.LogDebugf("Skip non-log file: %s", entry.Name())
		}
	}
	sort.Strings(names)

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(s.baseDir, name)
	}

	util.LogDebugf("File scan completed: duration %v, %d entries, found %d log files",
		time.Since(start), len(entries), len(files))

	return files, nil
}

// Qualifies reports whether name is a rotated log (year prefix) or the
// current log.
func (s *LogScanner) Qualifies(name string) bool {
	if strings.HasPrefix(name, s.currentPrefix) {
		return true
	}
	return hasYearPrefix(name)
}

// isFile reports whether entry is a regular file, following symlinks. Servers
// often link latest.log from another volume.
func (s *LogScanner) isFile(entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(s.baseDir, entry.Name()))
	if err != nil {
		util.LogDebugf("Skip broken symlink %s: %v", entry.Name(), err)
		return false
	}
	return info.Mode().IsRegular()
}

// IsCurrentLog reports whether the file at path is the live log.
func IsCurrentLog(path string) bool {
	return strings.HasPrefix(filepath.Base(path), model.CurrentLogPrefix)
}

func hasYearPrefix(name string) bool {
	if len(name) < 4 {
		return false
	}
	for _, c := range name[:4] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
