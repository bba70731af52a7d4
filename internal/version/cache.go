package version

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/leadvault/internal/leadconfig"
)

// cacheTTL is how long a check result stays fresh.
const cacheTTL = 24 * time.Hour

const cacheFile = "version_cache.json"

// CacheEntry is the persisted result of the last release check.
type CacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

// LoadCache reads the cached check result. Missing or corrupt cache files
// return an error; callers fall back to a live check.
func LoadCache() (*CacheEntry, error) {
	dir, err := leadconfig.ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache persists a check result.
func SaveCache(entry *CacheEntry) error {
	dir, err := leadconfig.ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0644)
}

// IsCacheValid reports whether the entry is fresh and was computed for the
// same running version. A binary upgrade invalidates the cache.
func IsCacheValid(entry *CacheEntry, currentVersion string) bool {
	if entry == nil || entry.CurrentVersion != currentVersion {
		return false
	}
	return time.Since(entry.CheckedAt) < cacheTTL
}
