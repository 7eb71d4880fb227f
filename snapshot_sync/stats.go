package snapshot_sync

import (
	"sync"
	"time"
)

// SyncStats tracks pipeline activity
type SyncStats struct {
	Runs           int64
	Writes         int64
	FallbackWrites int64
	Unchanged      int64
	Empty          int64
	WriteFailures  int64
	Panics         int64
	TreeRebuilds   int64
	CacheReuses    int64
	ArtifactTokens int
	LastResetTime  time.Time
	mutex          sync.RWMutex
}

func newSyncStats() *SyncStats {
	return &SyncStats{LastResetTime: time.Now()}
}

// recordRun increments the run counter
func (s *SyncStats) recordRun() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Runs++
}

// recordResolution counts whether the folder tree was rebuilt or reused
func (s *SyncStats) recordResolution(rebuilt bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if rebuilt {
		s.TreeRebuilds++
	} else {
		s.CacheReuses++
	}
}

func (s *SyncStats) recordEmpty() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Empty++
}

func (s *SyncStats) recordPanic() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Panics++
}

// recordWrite counts a writer outcome
func (s *SyncStats) recordWrite(result WriteResult, tokens int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	switch result {
	case WriteSkipped:
		s.Unchanged++
	case WriteAtomic:
		s.Writes++
		s.ArtifactTokens = tokens
	case WriteFallback:
		s.Writes++
		s.FallbackWrites++
		s.ArtifactTokens = tokens
	case WriteFailed:
		s.WriteFailures++
	}
}

// snapshot returns the counters in a map, uptime included
func (s *SyncStats) snapshot() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	uptime := time.Since(s.LastResetTime)

	reuseRate := 0.0
	if resolutions := s.TreeRebuilds + s.CacheReuses; resolutions > 0 {
		reuseRate = float64(s.CacheReuses) / float64(resolutions) * 100
	}

	return map[string]interface{}{
		"runs":             s.Runs,
		"writes":           s.Writes,
		"fallback_writes":  s.FallbackWrites,
		"unchanged":        s.Unchanged,
		"empty":            s.Empty,
		"write_failures":   s.WriteFailures,
		"panics":           s.Panics,
		"tree_rebuilds":    s.TreeRebuilds,
		"cache_reuses":     s.CacheReuses,
		"cache_reuse_rate": reuseRate,
		"artifact_tokens":  s.ArtifactTokens,
		"uptime_seconds":   uptime.Seconds(),
		"uptime_human":     uptime.Round(time.Second).String(),
		"last_reset":       s.LastResetTime.Format(time.RFC3339),
	}
}

// reset zeroes all counters
func (s *SyncStats) reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Runs, s.Writes, s.FallbackWrites, s.Unchanged, s.Empty = 0, 0, 0, 0, 0
	s.WriteFailures, s.Panics, s.TreeRebuilds, s.CacheReuses = 0, 0, 0, 0
	s.ArtifactTokens = 0
	s.LastResetTime = time.Now()
}
