package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// CacheStore keeps the last fetched reading per quota window.
type CacheStore interface {
	// Get returns the reading for key if one exists and is still fresh.
	Get(key QuotaKey) (QuotaReading, bool)
	// Put stores a reading. Failures are not reported.
	Put(key QuotaKey, r QuotaReading)
}

// cacheFile is the on-disk payload. The file mtime is the write time.
type cacheFile struct {
	Pct      int     `json:"pct"`
	ResetsAt *string `json:"resets_at"`
}

// fileCache stores one JSON file per key in dir. There is no locking;
// concurrent statusline processes simply overwrite each other.
type fileCache struct {
	dir string
	ttl func(QuotaKey) time.Duration
	now func() time.Time
}

func newFileCache(cfg CacheConfig) *fileCache {
	return &fileCache{
		dir: cfg.Dir,
		ttl: cfg.TTL,
		now: time.Now,
	}
}

func (c *fileCache) path(key QuotaKey) string {
	return filepath.Join(c.dir, string(key)+".json")
}

func (c *fileCache) Get(key QuotaKey) (QuotaReading, bool) {
	r, _, err := c.read(key)
	if err != nil {
		log.WithError(err).Debugf("cache: %s miss", key)
		return QuotaReading{}, false
	}
	return r, true
}

// read returns the reading and its age, or an error when the entry is
// missing, unreadable or stale.
func (c *fileCache) read(key QuotaKey) (QuotaReading, time.Duration, error) {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return QuotaReading{}, 0, err
	}

	age := c.now().Sub(info.ModTime())
	if ttl := c.ttl(key); age > ttl {
		return QuotaReading{}, age, fmt.Errorf("entry is %s old, ttl %s", age.Round(time.Second), ttl)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return QuotaReading{}, age, err
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return QuotaReading{}, age, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	r := QuotaReading{Percentage: clampPercent(f.Pct)}
	if f.ResetsAt != nil {
		r.ResetsAt = *f.ResetsAt
	}
	return r, age, nil
}

func (c *fileCache) Put(key QuotaKey, r QuotaReading) {
	if err := c.write(key, r); err != nil {
		log.WithError(err).Debugf("cache: %s not persisted", key)
	}
}

func (c *fileCache) write(key QuotaKey, r QuotaReading) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f := cacheFile{Pct: r.Percentage}
	if r.ResetsAt != "" {
		f.ResetsAt = &r.ResetsAt
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// CacheStatus describes one entry for the cache command.
type CacheStatus struct {
	Key     QuotaKey
	Reading QuotaReading
	Age     time.Duration
	Exists  bool
	Valid   bool
	Err     error
}

// Inspect reports on every key without treating stale entries as missing.
func (c *fileCache) Inspect() []CacheStatus {
	var out []CacheStatus
	for _, key := range []QuotaKey{KeySession, KeyWeekly} {
		st := CacheStatus{Key: key}
		r, age, err := c.read(key)
		st.Age = age
		switch {
		case err == nil:
			st.Exists, st.Valid, st.Reading = true, true, r
		case os.IsNotExist(err):
		default:
			st.Exists, st.Err = true, err
		}
		out = append(out, st)
	}
	return out
}
