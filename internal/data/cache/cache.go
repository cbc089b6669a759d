package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonNotFound
	MissReasonChanged
	MissReasonLocation
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonNotFound:
		return "not found"
	case MissReasonChanged:
		return "file changed"
	case MissReasonLocation:
		return "timezone changed"
	default:
		return "unknown"
	}
}

type CacheResult struct {
	Data       *model.FileEvents
	Found      bool
	MissReason CacheMissReason
}

// Entry is the on-disk form of one cached log file.
type Entry struct {
	FilePath string            `json:"filePath"`
	Location string            `json:"location"`
	Info     util.FileInfo     `json:"info"`
	Events   *model.FileEvents `json:"events"`
}

// Cache stores the events extracted from rotated log files. Timestamps depend
// on the configured timezone, so entries are keyed by it as well.
type Cache interface {
	Get(path, location string) CacheResult
	Set(path, location string, events *model.FileEvents) error
	Clear() error
	Preload() error
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

// cacheKey names the cache file for a log path. Rotated logs of different
// servers share names, so the directory is folded into the key.
func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return fmt.Sprintf("%s-%08x", filepath.Base(abs), crc32.ChecksumIEEE([]byte(filepath.Dir(abs))))
}

func (c *FileCache) Get(path, location string) CacheResult {
	key := cacheKey(path)

	c.mu.RLock()
	entry, ok := c.memoryCache[key]
	c.mu.RUnlock()

	if !ok {
		var reason CacheMissReason
		entry, reason = c.readEntry(filepath.Join(c.baseDir, key+".json"))
		if entry == nil {
			return CacheResult{MissReason: reason}
		}
	}

	if reason := validate(entry, location); reason != MissReasonNone {
		c.mu.Lock()
		delete(c.memoryCache, key)
		c.mu.Unlock()
		return CacheResult{MissReason: reason}
	}

	c.mu.Lock()
	c.memoryCache[key] = entry
	c.mu.Unlock()

	return CacheResult{Data: entry.Events, Found: true}
}

func (c *FileCache) readEntry(cachePath string) (*Entry, CacheMissReason) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, MissReasonNotFound
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil || entry.Events == nil {
		util.LogDebugf("Corrupt cache file %s: %v", cachePath, err)
		return nil, MissReasonError
	}
	return &entry, MissReasonNone
}

func validate(entry *Entry, location string) CacheMissReason {
	if entry.Location != location {
		return MissReasonLocation
	}

	current, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: %v", entry.FilePath, err)
		return MissReasonError
	}
	if !current.Matches(&entry.Info) {
		util.LogDebugf("Cache invalidated for %s: cached %+v, current %+v",
			entry.FilePath, entry.Info, *current)
		return MissReasonChanged
	}
	return MissReasonNone
}

func (c *FileCache) Set(path, location string, events *model.FileEvents) error {
	info, err := util.GetFileInfo(path)
	if err != nil {
		return err
	}

	entry := &Entry{
		FilePath: path,
		Location: location,
		Info:     *info,
		Events:   events,
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		return err
	}

	key := cacheKey(path)
	if err := os.WriteFile(filepath.Join(c.baseDir, key+".json"), data, 0644); err != nil {
		return err
	}

	c.mu.Lock()
	c.memoryCache[key] = entry
	c.mu.Unlock()
	return nil
}

// Clear drops memory entries and removes every .json file in the cache dir.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.baseDir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// Preload reads every cache file into memory. Unreadable files are skipped;
// validation happens on Get.
func (c *FileCache) Preload() error {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}

	loaded, invalid := 0, 0
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		entry, _ := c.readEntry(filepath.Join(c.baseDir, e.Name()))
		if entry == nil {
			invalid++
			continue
		}
		c.memoryCache[strings.TrimSuffix(e.Name(), ".json")] = entry
		loaded++
	}

	util.LogDebugf("Cache preload complete: %d loaded, %d invalid", loaded, invalid)
	return nil
}

// GetCacheStats returns the number of entries held in memory and on disk.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	memoryCount = len(c.memoryCache)
	entries, _ := os.ReadDir(c.baseDir)
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			fileCount++
		}
	}
	return memoryCount, fileCount
}
