package cache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// diskMagic starts every cache file; the expiry follows as Unix seconds
const diskMagic = "marka-cache "

// DiskCache keeps entries as files under dir. Each file holds a one-line
// header with the expiry followed by the raw value.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// Get retrieves a value from the disk cache. Expired or unreadable files
// are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	header, value, ok := bytes.Cut(data, []byte("\n"))
	if !ok || !bytes.HasPrefix(header, []byte(diskMagic)) {
		_ = os.Remove(path)
		return nil, false
	}
	expires, err := strconv.ParseInt(string(header[len(diskMagic):]), 10, 64)
	if err != nil || time.Now().After(time.Unix(expires, 0)) {
		_ = os.Remove(path)
		return nil, false
	}

	return value, true
}

// Set stores a value in the disk cache. A zero ttl uses the cache default.
// The file is replaced atomically.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "%s%d\n", diskMagic, time.Now().Add(ttl).Unix())
	_, _ = w.Write(value)
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("store cache file: %w", err)
	}
	return nil
}

// Delete removes a value from the disk cache. Missing entries are not an
// error.
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path generates the file path for a cache key
func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".cache")
}
