package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps entries on local disk, one JSON file per key, grouped by
// stage:
//
//	<dir>/raster/3f/a9c1....json
//	<dir>/inflate/07/5be2....json
//	<dir>/placement/e4/19d0....json
//
// Keys that name no stage go under "other". Stats and Clear work per stage.
type FileCache struct {
	dir string
}

// NewFileCache opens (creating if needed) a file cache rooted at dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk form. Key is stored so a path collision reads as
// a miss rather than as another key's data.
type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get reads key. Unreadable, foreign, or expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key || e.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes key through a temporary file so readers never see a partial
// entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	e := fileEntry{Key: key, Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Dir returns the cache root.
func (c *FileCache) Dir() string {
	return c.dir
}

// StageStats summarizes the entries of one stage.
type StageStats struct {
	Stage   Stage
	Entries int
	Bytes   int64
	Expired int
}

// Stats walks the cache and reports every stage in [Stages] order, followed
// by StageOther when it holds entries.
func (c *FileCache) Stats() ([]StageStats, error) {
	now := time.Now()
	var out []StageStats
	for _, s := range append(append([]Stage(nil), Stages...), StageOther) {
		st := StageStats{Stage: s}
		err := c.walk(s, func(path string, info fs.FileInfo) {
			st.Entries++
			st.Bytes += info.Size()
			if raw, err := os.ReadFile(path); err == nil {
				var e fileEntry
				if json.Unmarshal(raw, &e) == nil && e.expired(now) {
					st.Expired++
				}
			}
		})
		if err != nil {
			return nil, err
		}
		if s == StageOther && st.Entries == 0 {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Clear removes the entries of the given stages, or of every stage when none
// is given, and returns how many were removed.
func (c *FileCache) Clear(stages ...Stage) (int, error) {
	if len(stages) == 0 {
		stages = append(append([]Stage(nil), Stages...), StageOther)
	}
	count := 0
	for _, s := range stages {
		err := c.walk(s, func(path string, _ fs.FileInfo) {
			if os.Remove(path) == nil {
				count++
			}
		})
		if err != nil {
			return count, err
		}
		removeEmptyDirs(filepath.Join(c.dir, string(s)))
	}
	return count, nil
}

// Close is a no-op.
func (c *FileCache) Close() error {
	return nil
}

// walk calls fn for every entry file of stage s.
func (c *FileCache) walk(s Stage, fn func(path string, info fs.FileInfo)) error {
	root := filepath.Join(c.dir, string(s))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(path, info)
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// removeEmptyDirs drops the shard directories under root and root itself
// once they hold nothing.
func removeEmptyDirs(root string) {
	shards, _ := os.ReadDir(root)
	for _, d := range shards {
		if d.IsDir() {
			_ = os.Remove(filepath.Join(root, d.Name()))
		}
	}
	_ = os.Remove(root)
}

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, string(StageOf(key)), h[:2], h[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
