package domain

import (
	"strings"
	"time"
)

// Durable cache key namespaces.
const (
	// NamespaceVectors holds serialised vector indexes keyed by content hash.
	NamespaceVectors = "vectors"

	// NamespaceSearch holds external search results keyed by source and query hash.
	NamespaceSearch = "search"
)

// IndexCacheKey returns the durable key for an index built from text with the given hash.
func IndexCacheKey(contentHash string) string {
	return NamespaceVectors + ":" + contentHash
}

// SearchCacheKey returns the durable key for a source's results for query.
// Queries are normalised so case and spacing do not defeat the cache.
func SearchCacheKey(source, query string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return NamespaceSearch + ":" + source + ":" + ContentHash(normalised)
}

// Namespace returns the namespace portion of a durable key.
func Namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// CacheEntry is the durable record of a built index.
// Entries are immutable and replaced whole.
type CacheEntry struct {
	// Key is IndexCacheKey of the raw text hash.
	Key string `json:"key"`

	// Model is the embedding model that produced the index.
	Model string `json:"model"`

	// Index is the serialised vector index.
	Index []byte `json:"index"`

	// Chunks is the chunk text sidecar.
	Chunks []string `json:"chunks"`

	// Metadata is the per-chunk metadata sidecar.
	Metadata []map[string]any `json:"metadata"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`

	// TTL is how long the entry remains valid.
	TTL time.Duration `json:"ttl"`
}

// Expired returns true if the entry has outlived its TTL at now.
// A zero TTL never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// ChunkMetadata returns the sidecar metadata for a chunk.
func ChunkMetadata(c Chunk) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"length":          c.Length,
		"position":        string(c.Position),
		"word_count":      c.WordCount,
		"has_numbers":     c.HasNumbers,
		"has_punctuation": c.HasPunctuation,
		"preview":         c.Preview,
		"offset":          c.Offset,
	}
}

// LRUStats reports the in-process index cache.
type LRUStats struct {
	Capacity  int    `json:"capacity"`
	Len       int    `json:"len"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// StoreStats reports the durable cache store.
type StoreStats struct {
	// Entries counts live entries per namespace.
	Entries map[string]int `json:"entries"`

	// Expired counts entries past their TTL that have not been swept.
	Expired int `json:"expired"`
}

// CacheStats combines both cache tiers.
type CacheStats struct {
	Memory  LRUStats   `json:"memory"`
	Durable StoreStats `json:"durable"`
}
