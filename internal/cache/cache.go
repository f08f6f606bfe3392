package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores build artifacts by key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion changes whenever the snapshot format changes
const keyVersion = "marka-v1-"

// SnapshotKey derives the cache key of a snapshot from the source bytes
// and a fingerprint of every setting that changes the build output
func SnapshotKey(source []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return keyVersion + hex.EncodeToString(h.Sum(nil))
}
