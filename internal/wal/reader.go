package wal

import (
	"errors"
	"fmt"
	"io"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/segment"
	"github.com/backbone81/region-wal/internal/utils"
)

// ErrEntryNone is returned by Err when no entry could be read. This indicates either a corrupt entry or the end of
// the written entries.
var ErrEntryNone = segment.ErrEntryNone

// Reader provides functionality to read the write-ahead log. It abstracts away the fact that the write-ahead log is
// split into multiple segments and decodes the entry key of every record.
//
// Instances of this struct are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type Reader struct {
	noCopy utils.NoCopy

	// The directory all segment files live in.
	directory string

	// The currently active segment reader where we are reading entries from.
	segmentReader *segment.SegmentReader

	// The sequence number of the entry we read next. We keep track of it to know what the filename of the next segment
	// file is when we hit the end of the file of the current segment.
	nextSequenceNumber uint64

	// Scratch space for the key codec.
	scratch [KeyBufferLen]byte

	// The value the reader returns. Only contains useful data if err is nil.
	value ReaderValue

	// The error for the last operation. If this is nil, the content of value can be used. We need to keep our own err
	// around, because there are errors which can occur when opening segment files or decoding records. Therefore, we
	// can not rely on the segment reader err only.
	err error
}

// ReaderValue is the value returned by the Reader.
type ReaderValue struct {
	// The sequence number of the entry.
	SequenceNumber uint64

	// The decoded entry key.
	Key Key

	// The edit payload of the entry. This slice aliases an internal buffer and is only valid until the next call to
	// Next().
	Edit []byte
}

// NewReader creates a new Reader starting at the given sequence number. It will find the segment the sequence number
// belongs to and read all entries up until the requested sequence number.
func NewReader(directory string, sequenceNumber uint64) (*Reader, error) {
	// Identify which segment contains the requested sequence number. The segment itself is the first sequence number
	// in the segment.
	firstSequenceNumber, err := segment.SegmentFromSequenceNumber(directory, sequenceNumber)
	if err != nil {
		return nil, err
	}

	segmentReader, err := segment.OpenSegment(directory, firstSequenceNumber)
	if err != nil {
		return nil, err
	}

	// Move the WAL reader forward until we have reached the desired sequence number.
	newReader := Reader{
		directory:          directory,
		segmentReader:      segmentReader,
		nextSequenceNumber: firstSequenceNumber,
	}
	for newReader.nextSequenceNumber < sequenceNumber && newReader.Next() {
		// Skip entry until we have reached our target sequence number.
	}
	if newReader.Err() != nil {
		// We abort here if we are unable to reach the requested location.
		return nil, errors.Join(newReader.Err(), newReader.Close())
	}
	if newReader.nextSequenceNumber != sequenceNumber {
		// This should never happen, when we did not get any error from Next(), but we still double check.
		return nil, errors.Join(
			fmt.Errorf("expected to reach sequence number %d but instead reached %d", sequenceNumber, newReader.nextSequenceNumber),
			newReader.Close(),
		)
	}

	return &newReader, nil
}

// Next reports if an entry has been successfully read. When it returns true, Err() returns nil and Value() contains
// valid data. When it returns false, Err() contains the error and Value() contains invalid data.
func (r *Reader) Next() bool {
	// Forward to our active segment reader first.
	next := r.segmentReader.Next()
	r.err = r.segmentReader.Err()

	if next {
		record, err := decodeRecord(r.segmentReader.Value().Data, r.scratch[:])
		if err != nil {
			r.err = errors.Join(ErrEntryNone, err)
			return false
		}
		r.value = ReaderValue{
			SequenceNumber: r.segmentReader.Value().SequenceNumber,
			Key:            record.Key,
			Edit:           record.Edit,
		}
		r.nextSequenceNumber++
		return true
	}

	if !errors.Is(r.err, io.EOF) {
		// Any error other than end of file results in an early exit. In case of end of file, we want to replace
		// the current segment reader with the next segment reader.
		return false
	}

	// We are ready to move on to the next segment. We open the next segment before closing the drained one, so that
	// a missing next segment leaves the reader with an open segment reader and Close() keeps working.
	nextSegmentReader, err := segment.OpenSegment(r.directory, r.nextSequenceNumber)
	if err != nil {
		r.err = err
		return false
	}

	previousSegmentReader := r.segmentReader
	r.segmentReader = nextSegmentReader
	if err := previousSegmentReader.Close(); err != nil {
		r.err = fmt.Errorf("closing the segment reader: %w", err)
		return false
	}

	// Call recursively into Next() to deal with potential errors with the next segment reader there.
	return r.Next()
}

// Value returns the last entry read from the write-ahead log. The values are only valid after the first call to
// Next() and while Err() is nil.
func (r *Reader) Value() ReaderValue {
	return r.value
}

// Err returns the error for the last call to Next().
func (r *Reader) Err() error {
	return r.err
}

// FilePath returns the file path of the file this reader is reading from.
func (r *Reader) FilePath() string {
	return r.segmentReader.FilePath()
}

// Header returns the header of the segment file this reader is reading from.
func (r *Reader) Header() encoding.Header {
	return r.segmentReader.Header()
}

// ToWriter returns a Writer to append to the write-ahead log. You must have read all entries before you call this
// method. Otherwise, it will fail. After a call to ToWriter(), you cannot use the Reader anymore.
func (r *Reader) ToWriter(options ...WriterOption) (*Writer, error) {
	newSegmentWriter, err := r.segmentReader.ToWriter()
	if err != nil {
		return nil, err
	}

	result, err := newWriter(newSegmentWriter, options...)
	if err != nil {
		return nil, err
	}

	// Roll over right away if the segment we continue on already exceeds the desired maximum size. This keeps the
	// first append from paying for the rollover.
	result.mutex.Lock()
	defer result.mutex.Unlock()
	if err := result.rolloverIfNeeded(); err != nil {
		return nil, errors.Join(err, result.segmentWriter.Close())
	}

	// Make sure this reader is not used for anything else afterward.
	*r = Reader{}
	return result, nil
}

// Close closes the file the Reader is reading from.
func (r *Reader) Close() error {
	return r.segmentReader.Close()
}
