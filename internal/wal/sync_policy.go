package wal

import (
	"github.com/backbone81/region-wal/internal/segment"
)

// SyncPolicy describes how appended entries are flushed to stable storage.
//
// Startup hands the policy the segment writer to flush. It is called again after every rollover with the new segment
// writer, with a Shutdown in between.
type SyncPolicy interface {
	Startup(segmentWriter *segment.SegmentWriter) error
	EntryAppended(sequenceNumber uint64) error
	Shutdown() error
}
