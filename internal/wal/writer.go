package wal

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/segment"
)

var ErrKeyNameMissing = errors.New("a WAL entry requires a region name and a table name")

// Writer provides the main functionality for writing keyed entries to the write-ahead log. It abstracts away the fact
// that the WAL is distributed over several segment files and does rollover into new segments as necessary. The writer
// is the only place which assigns final sequence numbers to entry keys.
//
// Writer is safe to use from multiple Go routines concurrently.
//
// You can only create a writer with the Reader.ToWriter function. This makes sure that you have read all entries
// before writing to the write-ahead log.
type Writer struct {
	mutex sync.Mutex

	segmentWriter *segment.SegmentWriter
	syncPolicy    SyncPolicy

	preAllocationSize   int64
	maxSegmentSize      int64
	firstSequenceNumber uint64
	entryLengthEncoding encoding.EntryLengthEncoding
	entryChecksumType   encoding.EntryChecksumType
	rolloverCallback    RolloverCallback

	// Reusable buffers for encoding records. Guarded by the writer mutex.
	recordBuffer bytes.Buffer
	keyBuffer    bytes.Buffer
	scratch      [KeyBufferLen]byte
}

// RolloverCallback is the callback users can register for getting notified when a rollover of a segment file happens.
// The parameters are the previous and the next segment identified by the first sequence number of entries stored
// inside.
type RolloverCallback func(previousSegment uint64, nextSegment uint64)

// DefaultRolloverCallback provides a callback which does nothing.
var DefaultRolloverCallback RolloverCallback = func(previousSegment uint64, nextSegment uint64) {}

// WriterOption describes the function signature which all writer options need to implement.
type WriterOption func(w *Writer)

// WithPreAllocationSize overwrites the default pre-allocation size of new segment files.
// Can be used with Init and Reader.ToWriter.
func WithPreAllocationSize(preAllocationSize int64) WriterOption {
	return func(w *Writer) {
		w.preAllocationSize = max(preAllocationSize, 0)
	}
}

// WithMaxSegmentSize overwrites the default maximum segment size which causes rollover into a new segment when reached.
// Can be used with Reader.ToWriter.
func WithMaxSegmentSize(maxSegmentSize int64) WriterOption {
	return func(w *Writer) {
		// We need to prevent zero entry segments as they would result in duplicate segment file names. We therefore
		// enforce at least one byte more than the header to have at least one entry in each segment.
		w.maxSegmentSize = max(maxSegmentSize, encoding.HeaderSize+1)
	}
}

// WithFirstSequenceNumber overwrites the sequence number a new write-ahead log starts with.
// Can be used with Init.
func WithFirstSequenceNumber(firstSequenceNumber uint64) WriterOption {
	return func(w *Writer) {
		w.firstSequenceNumber = firstSequenceNumber
	}
}

// WithEntryLengthEncoding overwrites the default entry length encoding.
// Can be used with Init and Reader.ToWriter.
func WithEntryLengthEncoding(entryLengthEncoding encoding.EntryLengthEncoding) WriterOption {
	return func(w *Writer) {
		w.entryLengthEncoding = entryLengthEncoding
	}
}

// WithEntryChecksumType overwrites the default entry checksum type.
// Can be used with Init and Reader.ToWriter.
func WithEntryChecksumType(entryChecksumType encoding.EntryChecksumType) WriterOption {
	return func(w *Writer) {
		w.entryChecksumType = entryChecksumType
	}
}

// WithSyncPolicyNone overwrites the default sync policy with sync policy none.
// Can be used with Reader.ToWriter.
func WithSyncPolicyNone() WriterOption {
	return func(w *Writer) {
		w.syncPolicy = NewSyncPolicyNone()
	}
}

// WithSyncPolicyImmediate overwrites the default sync policy with sync policy immediate.
// Can be used with Reader.ToWriter.
func WithSyncPolicyImmediate() WriterOption {
	return func(w *Writer) {
		w.syncPolicy = NewSyncPolicyImmediate()
	}
}

// WithSyncPolicyPeriodic overwrites the default sync policy with sync policy periodic.
// Can be used with Reader.ToWriter.
func WithSyncPolicyPeriodic(syncAfterEntryCount int, syncEvery time.Duration) WriterOption {
	return func(w *Writer) {
		w.syncPolicy = NewSyncPolicyPeriodic(syncAfterEntryCount, syncEvery)
	}
}

// WithSyncPolicyGrouped overwrites the default sync policy with sync policy grouped.
// Can be used with Reader.ToWriter.
func WithSyncPolicyGrouped(syncAfter time.Duration) WriterOption {
	return func(w *Writer) {
		w.syncPolicy = NewSyncPolicyGrouped(syncAfter)
	}
}

// WithRolloverCallback sets the given callback for being triggered when the current segment is rolled.
// Can be used with Reader.ToWriter.
func WithRolloverCallback(rolloverCallback RolloverCallback) WriterOption {
	return func(w *Writer) {
		w.rolloverCallback = rolloverCallback
	}
}

// newWriter creates a writer around the given segment writer and starts the sync policy.
func newWriter(segmentWriter *segment.SegmentWriter, options ...WriterOption) (*Writer, error) {
	newWriter := Writer{
		segmentWriter:       segmentWriter,
		preAllocationSize:   segment.DefaultPreAllocationSize,
		maxSegmentSize:      segment.DefaultPreAllocationSize,
		entryLengthEncoding: segmentWriter.Header().EntryLengthEncoding,
		entryChecksumType:   segmentWriter.Header().EntryChecksumType,
		syncPolicy:          NewSyncPolicyGrouped(time.Millisecond),
		rolloverCallback:    DefaultRolloverCallback,
	}
	for _, option := range options {
		option(&newWriter)
	}
	if err := newWriter.syncPolicy.Startup(segmentWriter); err != nil {
		return nil, err
	}
	return &newWriter, nil
}

// FilePath returns the file path of the file this writer is writing to.
func (w *Writer) FilePath() string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.segmentWriter.FilePath()
}

// Header returns the segment file header.
func (w *Writer) Header() encoding.Header {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.segmentWriter.Header()
}

// Offset returns the offset in bytes from the start of the file.
func (w *Writer) Offset() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.segmentWriter.Offset()
}

// NextSequenceNumber returns the sequence number the next entry will receive.
func (w *Writer) NextSequenceNumber() uint64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.segmentWriter.NextSequenceNumber()
}

// Append writes an edit of the given region to the write-ahead log. It builds the entry key with the current
// wall-clock time and the default cluster id, assigns the next sequence number and returns it. It will roll over to
// the next segment file before appending if the current file size exceeds the desired maximum segment size.
func (w *Writer) Append(regionName []byte, tableName []byte, edit []byte) (uint64, error) {
	key := NewKey(regionName, tableName, 0, time.Now().UnixMilli())
	return w.AppendKeyed(key, edit)
}

// AppendKeyed writes an edit with a caller supplied key to the write-ahead log. This is the ingest path for
// replicated entries: the origin cluster id and the write time of the key are preserved, only the sequence number is
// assigned locally. The provisional sequence number inside the key is ignored.
func (w *Writer) AppendKeyed(key Key, edit []byte) (uint64, error) {
	if len(key.regionName) == 0 || len(key.tableName) == 0 {
		// The key codec accepts absent names, the log does not. Persisting entries which cannot be attributed to a
		// region would poison replay.
		return 0, ErrKeyNameMissing
	}

	sequenceNumber, err := w.appendRecord(&key, edit)
	if err != nil {
		return 0, err
	}

	// Note that the call to the sync policy must not happen under the writer lock. The sync policy can block to
	// group several append calls. If this call would happen under the writer lock, we would not be able to have
	// any concurrency at all.
	if err := w.syncPolicy.EntryAppended(sequenceNumber); err != nil {
		return 0, err
	}
	return sequenceNumber, nil
}

func (w *Writer) appendRecord(key *Key, edit []byte) (uint64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.rolloverIfNeeded(); err != nil {
		return 0, err
	}

	key.setSequence(int64(w.segmentWriter.NextSequenceNumber())) //nolint:gosec // sequence numbers stay far below the signed limit

	w.recordBuffer.Reset()
	if err := encodeRecord(&w.recordBuffer, &w.keyBuffer, w.scratch[:], key, edit); err != nil {
		return 0, err
	}

	sequenceNumber, err := w.segmentWriter.AppendEntry(w.recordBuffer.Bytes())
	if err != nil {
		return 0, fmt.Errorf("writing entry to segment file: %w", err)
	}
	return sequenceNumber, nil
}

// Close closes the underlying writer.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	syncErr := w.syncPolicy.Shutdown()
	closeErr := w.segmentWriter.Close()

	return errors.Join(syncErr, closeErr)
}

// rolloverIfNeeded will check if the current offset exceeds the desired maximum segment size and do a rollover then.
func (w *Writer) rolloverIfNeeded() error {
	if w.segmentWriter.Offset() < w.maxSegmentSize {
		// We did not yet reach the desired maximum segment size. We can continue with what we have at hand.
		return nil
	}

	return w.rollover()
}

// rollover closes the current writer and creates a new segment to write to.
func (w *Writer) rollover() error {
	RolloverTotal.Inc()
	start := time.Now()

	previousSegment := w.segmentWriter.Header().FirstSequenceNumber

	if err := w.syncPolicy.Shutdown(); err != nil {
		return err
	}
	if err := w.segmentWriter.Truncate(); err != nil {
		return err
	}
	if err := w.segmentWriter.Close(); err != nil {
		return err
	}

	nextSegmentWriter, err := segment.CreateSegment(path.Dir(w.segmentWriter.FilePath()), w.segmentWriter.NextSequenceNumber(), segment.CreateSegmentConfig{
		PreAllocationSize:   w.preAllocationSize,
		EntryLengthEncoding: w.entryLengthEncoding,
		EntryChecksumType:   w.entryChecksumType,
	})
	if err != nil {
		return err
	}
	w.segmentWriter = nextSegmentWriter

	if err := w.syncPolicy.Startup(w.segmentWriter); err != nil {
		return err
	}

	nextSegment := w.segmentWriter.Header().FirstSequenceNumber
	w.rolloverCallback(previousSegment, nextSegment)

	duration := time.Since(start).Seconds()
	if duration > 1.0 {
		log.Printf("WARNING: Segment rollover needed %f seconds which is too slow.\n", duration)
	}
	RolloverDuration.Observe(duration)
	return nil
}
