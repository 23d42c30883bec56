package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a cache key "prefix:sha256(parts)". Parts are serialized as
// JSON so structured options hash the same way every run.
func hashKey(prefix string, parts ...interface{}) string {
	raw, _ := json.Marshal(parts)
	return prefix + ":" + Hash(raw)
}

// Hash returns the hex-encoded SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
