package wal

import (
	"bytes"
	"cmp"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// DefaultClusterID is the cluster id keys receive when they are created by the local write path. Entries arriving
// through replication carry the cluster id of their origin instead. Keys decoded from a stream which predates the
// cluster id field keep this value as well.
const DefaultClusterID byte = 0

// LatestTimestamp is the write time a key shell carries until a Read populates it with the real write time.
const LatestTimestamp int64 = math.MaxInt64

// Key identifies one entry of the write-ahead log and places it in the total order of its region.
//
// The log intermingles edits to many regions of many tables, so every entry names the region it belongs to. Within a
// region, entries are ordered by sequence number and then by write time. The cluster id tags the replication cluster
// the edit originated from. It deliberately does not participate in the ordering: replicated and locally written
// entries have to interleave by their logical position in the region, not by which cluster produced them.
//
// The table name is carried mainly for debugging purposes. A region is always a sub-table object, so the table name
// adds no information to the ordering.
type Key struct {
	regionName []byte
	tableName  []byte
	logSeqNum  int64

	// Time at which this edit was written.
	writeTime int64

	clusterID byte
}

// NewKey creates the key for an edit of the given region.
//
// logSeqNum is provisional at this point. The append path assigns the final sequence number through setSequence once
// the position of the entry in the log is fixed.
// writeTime is the wall-clock time at which the edit was written.
func NewKey(regionName []byte, tableName []byte, logSeqNum int64, writeTime int64) Key {
	return Key{
		regionName: regionName,
		tableName:  tableName,
		logSeqNum:  logSeqNum,
		writeTime:  writeTime,
		clusterID:  DefaultClusterID,
	}
}

// NewShellKey creates an empty key intended as a pre-allocation shell for Read. Comparing or serializing a shell
// before a Read populated it is meaningless.
func NewShellKey() Key {
	return NewKey(nil, nil, 0, LatestTimestamp)
}

// RegionName returns the name of the region the keyed edit belongs to. The returned slice may be shared with other
// keys and must not be mutated.
func (k *Key) RegionName() []byte {
	return k.regionName
}

// TableName returns the name of the table the keyed edit belongs to. The returned slice may be shared with other
// keys and must not be mutated.
func (k *Key) TableName() []byte {
	return k.tableName
}

// SequenceNumber returns the log sequence number of the keyed edit.
func (k *Key) SequenceNumber() int64 {
	return k.logSeqNum
}

// WriteTime returns the wall-clock time at which the edit was written, in milliseconds since the unix epoch.
func (k *Key) WriteTime() int64 {
	return k.writeTime
}

// ClusterID returns the id of the cluster the edit originated from.
func (k *Key) ClusterID() byte {
	return k.clusterID
}

// SetClusterID tags the key with the cluster the edit originated from. The replication path uses this before shipping
// an entry to a peer cluster, so the peer can avoid propagating the entry back to its origin.
func (k *Key) SetClusterID(clusterID byte) {
	k.clusterID = clusterID
}

// setSequence assigns the final sequence number of the entry. This is not a general purpose setter: only the append
// path may call it, exactly once, when the position of the entry in the log is fixed.
func (k *Key) setSequence(logSeqNum int64) {
	k.logSeqNum = logSeqNum
}

// Compare places two keys in the total order of the log: by region name bytewise, then by sequence number, then by
// write time. The cluster id does not participate, keys differing only in their cluster id compare equal.
func (k *Key) Compare(other *Key) int {
	if result := bytes.Compare(k.regionName, other.regionName); result != 0 {
		return result
	}
	if result := cmp.Compare(k.logSeqNum, other.logSeqNum); result != 0 {
		return result
	}
	return cmp.Compare(k.writeTime, other.writeTime)
}

// Equal reports if two keys identify the same position in the log. It is defined through Compare, so the table name
// and the cluster id do not participate.
func (k *Key) Equal(other *Key) bool {
	return k.Compare(other) == 0
}

// Hash returns a hash over the key for bucketing keys in maps and sets.
//
// The cluster id is folded into the hash even though Equal ignores it. Keys differing only in their cluster id
// therefore compare equal but may land in different buckets. Callers depend on this cluster-sensitive bucketing, so
// it stays this way.
func (k *Key) Hash() uint64 {
	hash := fnv.New64a()
	hash.Write(k.regionName) //nolint:errcheck // hash.Write never returns an error.
	result := hash.Sum64()
	result ^= uint64(k.logSeqNum)  //nolint:gosec // only the bit pattern matters here
	result ^= uint64(k.writeTime)  //nolint:gosec // only the bit pattern matters here
	result ^= uint64(k.clusterID)
	return result
}

// internRegionName drops this key's region name buffer and holds a reference to the provided buffer instead. This is
// not a general purpose setter: the new buffer must be byte-equal to the current region name. It is only used by the
// key cache to collapse references to the same region name and conserve memory.
func (k *Key) internRegionName(regionName []byte) {
	if !bytes.Equal(k.regionName, regionName) {
		panic("wal: interned region name differs from the current region name")
	}
	k.regionName = regionName
}

// internTableName drops this key's table name buffer and holds a reference to the provided buffer instead. Same
// contract as internRegionName.
func (k *Key) internTableName(tableName []byte) {
	if !bytes.Equal(k.tableName, tableName) {
		panic("wal: interned table name differs from the current table name")
	}
	k.tableName = tableName
}

// String returns the key as "table/region/sequence" with the names rendered printable.
func (k *Key) String() string {
	var builder strings.Builder
	builder.WriteString(displayBytes(k.tableName))
	builder.WriteByte('/')
	builder.WriteString(displayBytes(k.regionName))
	builder.WriteByte('/')
	builder.WriteString(strconv.FormatInt(k.logSeqNum, 10))
	return builder.String()
}

// StringMap returns the fields of the key as a map from field name to value. Useful for programmatic use of the key
// data, for example printing it as JSON. The names are rendered printable.
func (k *Key) StringMap() map[string]any {
	return map[string]any{
		"table":     displayBytes(k.tableName),
		"region":    displayBytes(k.regionName),
		"sequence":  k.logSeqNum,
		"writeTime": k.writeTime,
	}
}

const hexDigits = "0123456789abcdef"

// displayBytes renders an opaque byte sequence for display. Printable ASCII stays as is, everything else is escaped
// as \xHH. Region and table names are opaque bytes, dumping them raw into log lines or JSON would corrupt the output.
func displayBytes(data []byte) string {
	var builder strings.Builder
	builder.Grow(len(data))
	for _, b := range data {
		if 0x20 <= b && b <= 0x7e {
			builder.WriteByte(b)
			continue
		}
		builder.WriteString(`\x`)
		builder.WriteByte(hexDigits[b>>4])
		builder.WriteByte(hexDigits[b&0x0f])
	}
	return builder.String()
}
