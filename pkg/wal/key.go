package wal

import intwal "github.com/backbone81/region-wal/internal/wal"

// Key identifies one entry of the write-ahead log and places it in the total order of its region.
type Key = intwal.Key

// NewKey creates the key for an edit of the given region.
var NewKey = intwal.NewKey

// NewShellKey creates an empty key intended as a pre-allocation shell for Read.
var NewShellKey = intwal.NewShellKey

// DefaultClusterID is the cluster id keys receive when they are created by the local write path.
const DefaultClusterID = intwal.DefaultClusterID

// LatestTimestamp is the write time a key shell carries until a Read populates it with the real write time.
const LatestTimestamp = intwal.LatestTimestamp

// MaxNameLength is the maximum length in bytes of a region or table name.
const MaxNameLength = intwal.MaxNameLength

// KeyBufferLen is the size of the scratch buffer required by Key.Write and Key.Read.
const KeyBufferLen = intwal.KeyBufferLen

// ErrKeyNameTooLarge is returned when a region or table name exceeds MaxNameLength.
var ErrKeyNameTooLarge = intwal.ErrKeyNameTooLarge

// KeyCache collapses the region and table name buffers of keys which carry equal names.
type KeyCache = intwal.KeyCache

// NewKeyCache creates an empty key cache.
var NewKeyCache = intwal.NewKeyCache
