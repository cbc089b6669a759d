package analyzer

import (
	"github.com/penwyp/go-mc-playtime/internal/util"
)

// CacheStats counts how files were served during one run.
type CacheStats struct {
	totalFiles  int
	cacheHits   int
	cacheMisses int
	uncached    int
	skipped     int
}

func NewCacheStats() *CacheStats {
	return &CacheStats{}
}

func (cs *CacheStats) IncrementTotal() {
	cs.totalFiles++
}

func (cs *CacheStats) IncrementHit() {
	cs.cacheHits++
}

func (cs *CacheStats) IncrementMiss() {
	cs.cacheMisses++
}

// IncrementUncached records a file that is never cached (the current log).
func (cs *CacheStats) IncrementUncached() {
	cs.uncached++
}

// AddSkipped records malformed lines dropped from a file.
func (cs *CacheStats) AddSkipped(n int) {
	cs.skipped += n
}

// GetStats returns the counters and the hit rate over cacheable files.
func (cs *CacheStats) GetStats() (total, hits, misses int, hitRate float64) {
	if cacheable := cs.cacheHits + cs.cacheMisses; cacheable > 0 {
		hitRate = float64(cs.cacheHits) / float64(cacheable) * 100
	}
	return cs.totalFiles, cs.cacheHits, cs.cacheMisses, hitRate
}

// PrintFinalStats logs the cache hit rate and skipped line count.
func (cs *CacheStats) PrintFinalStats() {
	total, hits, misses, hitRate := cs.GetStats()

	util.LogInfof("Cache statistics complete: total files %d, hit rate %.1f%% (%d hits/%d misses/%d uncached)",
		total, hitRate, hits, misses, cs.uncached)
	if cs.skipped > 0 {
		util.LogWarnf("Skipped %d malformed lines", cs.skipped)
	}
}
