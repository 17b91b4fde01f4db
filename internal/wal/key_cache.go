package wal

import (
	"bytes"
)

// KeyCache collapses the region and table name buffers of many keys to one canonical buffer per distinct name.
//
// A large replay or merge working set references only a handful of distinct regions and tables, while every decoded
// key initially owns its own copy of those names. Interning the keys through the cache makes all of them share one
// buffer per name, which reduces the memory footprint considerably without changing the logical value of any key.
//
// The canonical buffers become shared across many keys and must never be mutated. The cache itself is not safe for
// concurrent use.
type KeyCache struct {
	names map[string][]byte
}

// NewKeyCache creates an empty KeyCache.
func NewKeyCache() *KeyCache {
	return &KeyCache{
		names: make(map[string][]byte),
	}
}

// Intern replaces the region and table name buffers of the key with the canonical shared buffers, adding names to
// the cache on first sight. Comparison and hash results of the key are unchanged by this.
func (c *KeyCache) Intern(key *Key) {
	key.internRegionName(c.canonical(key.regionName))
	key.internTableName(c.canonical(key.tableName))
	KeyInternTotal.Inc()
}

// Len returns the number of distinct names held by the cache.
func (c *KeyCache) Len() int {
	return len(c.names)
}

func (c *KeyCache) canonical(name []byte) []byte {
	if name == nil {
		return nil
	}
	if canonical, ok := c.names[string(name)]; ok {
		return canonical
	}

	// The cache takes its own copy. The given name usually aliases a decode buffer which the owner is free to reuse.
	owned := bytes.Clone(name)
	c.names[string(owned)] = owned
	KeyInternNames.Inc()
	return owned
}
