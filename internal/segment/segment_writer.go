package segment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/utils"
)

// SegmentWriterFile is an interface which needs to be implemented by the file to write to.
type SegmentWriterFile interface {
	io.WriteCloser
	Sync() error
	Name() string
	Truncate(size int64) error
}

// SegmentWriter provides functionality for writing to a single segment file.
//
// Instances of SegmentWriter are NOT safe to use concurrently. You need to provide external synchronization.
type SegmentWriter struct {
	noCopy utils.NoCopy

	// The file the writer is writing data to.
	file SegmentWriterFile

	// The header of the segment file.
	header encoding.Header

	// This buffer is used to combine multiple individual file write commands into a single one to improve performance.
	writeBuffer *bytes.Buffer

	// The sequence number the next entry will receive.
	nextSequenceNumber uint64

	// The current offset in bytes from the start of the file.
	offset int64

	// The writer to encode the length of an entry.
	entryLengthWriter encoding.EntryLengthWriter

	// The writer to calculate and write the checksum.
	entryChecksumWriter encoding.EntryChecksumWriter

	// This is a temporary buffer for converting integers into slices of bytes. This helps us with reducing the amount
	// of memory allocations.
	scratchBuffer [max(encoding.MaxLengthBufferLen, encoding.MaxChecksumBufferLen)]byte
}

// CreateSegmentConfig is the configuration required for a call to CreateSegment.
type CreateSegmentConfig struct {
	// PreAllocationSize is the size in bytes the new segment file is pre-allocated with.
	PreAllocationSize int64

	// EntryLengthEncoding describes the way the entry length is encoded in the segment file.
	EntryLengthEncoding encoding.EntryLengthEncoding

	// EntryChecksumType describes the way the entry checksum is encoded in the segment file.
	EntryChecksumType encoding.EntryChecksumType
}

// CreateSegment creates a new segment file in the given directory. It will create the new file with the file extension
// ".new" appended to the file name and rename it after the header has been written to. This ensures that the new
// segment file is only visible in the directory when the header was correctly written and flushed to stable storage.
//
// directory is the directory all segment files are located in.
// firstSequenceNumber is used for deriving the file name and for storing it in the segment header.
func CreateSegment(directory string, firstSequenceNumber uint64, config CreateSegmentConfig) (*SegmentWriter, error) {
	// Remove any temporary segment file which might be there from an earlier failure.
	newSegmentFilePath := path.Join(directory, SegmentFileName(firstSequenceNumber)+".new")
	if err := os.Remove(newSegmentFilePath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing the segment file %q: %w", newSegmentFilePath, err)
	}

	// Create the temporary segment file and pre-allocate its size.
	file, err := os.OpenFile(newSegmentFilePath, os.O_RDWR|os.O_CREATE, 0o664) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("creating the segment file %q: %w", newSegmentFilePath, err)
	}

	if err := file.Truncate(config.PreAllocationSize); err != nil {
		return nil, fmt.Errorf("pre-allocating the segment file %q: %w", newSegmentFilePath, err)
	}

	// Write the header to the segment file and flush the content to stable storage.
	header := encoding.Header{
		Magic:               encoding.Magic,
		Version:             encoding.HeaderVersion,
		EntryLengthEncoding: config.EntryLengthEncoding,
		EntryChecksumType:   config.EntryChecksumType,
		FirstSequenceNumber: firstSequenceNumber,
	}
	var buffer [encoding.HeaderSize]byte
	if err := encoding.WriteHeader(file, buffer[:], header); err != nil {
		return nil, fmt.Errorf("writing header to segment file %q: %w", newSegmentFilePath, err)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("flushing the segment file %q: %w", newSegmentFilePath, err)
	}

	// Rename the temporary segment file to the final one.
	segmentFilePath := path.Join(directory, SegmentFileName(firstSequenceNumber))
	file, err = renameSegment(file, encoding.HeaderSize, segmentFilePath)
	if err != nil {
		return nil, err
	}

	return NewSegmentWriter(file, NewSegmentWriterConfig{
		Header:             header,
		Offset:             encoding.HeaderSize,
		NextSequenceNumber: firstSequenceNumber,
	})
}

// NewSegmentWriterConfig is the configuration required for a call to NewSegmentWriter.
type NewSegmentWriterConfig struct {
	// Header is the segment file header.
	Header encoding.Header

	// Offset is the current position in bytes from the start of the file.
	Offset int64

	// NextSequenceNumber is the sequence number the next entry will receive.
	NextSequenceNumber uint64
}

// NewSegmentWriter creates a SegmentWriter from a file which is already open.
func NewSegmentWriter(file SegmentWriterFile, config NewSegmentWriterConfig) (*SegmentWriter, error) {
	entryLengthWriter, err := encoding.GetEntryLengthWriter(config.Header.EntryLengthEncoding)
	if err != nil {
		return nil, err
	}

	entryChecksumWriter, err := encoding.GetEntryChecksumWriter(config.Header.EntryChecksumType)
	if err != nil {
		return nil, err
	}

	return &SegmentWriter{
		file:                file,
		header:              config.Header,
		writeBuffer:         bytes.NewBuffer(make([]byte, 0, 4*1024)),
		nextSequenceNumber:  config.NextSequenceNumber,
		offset:              config.Offset,
		entryLengthWriter:   entryLengthWriter,
		entryChecksumWriter: entryChecksumWriter,
	}, nil
}

// FilePath returns the file path of the file this writer is writing to.
func (w *SegmentWriter) FilePath() string {
	return w.file.Name()
}

// Header returns the segment file header.
func (w *SegmentWriter) Header() encoding.Header {
	return w.header
}

// NextSequenceNumber returns the sequence number the next entry will receive.
func (w *SegmentWriter) NextSequenceNumber() uint64 {
	return w.nextSequenceNumber
}

// Offset returns the offset in bytes from the start of the file.
func (w *SegmentWriter) Offset() int64 {
	return w.offset
}

// AppendEntry adds the given entry to the segment and returns the sequence number the entry received.
func (w *SegmentWriter) AppendEntry(data []byte) (uint64, error) {
	w.writeBuffer.Reset()
	if err := w.entryLengthWriter(w.writeBuffer, w.scratchBuffer[:], uint64(len(data))); err != nil {
		return 0, err
	}
	if len(data) > 0 {
		if _, err := w.writeBuffer.Write(data); err != nil {
			return 0, err
		}
	}
	if err := w.entryChecksumWriter(w.writeBuffer, w.scratchBuffer[:], w.writeBuffer.Bytes()); err != nil {
		return 0, err
	}

	if _, err := w.file.Write(w.writeBuffer.Bytes()); err != nil {
		return 0, fmt.Errorf("writing entry to segment file: %w", err)
	}
	sequenceNumber := w.nextSequenceNumber
	w.nextSequenceNumber++
	w.offset += int64(w.writeBuffer.Len())

	AppendEntryTotal.Inc()
	AppendEntryBytes.Add(float64(len(data)))
	return sequenceNumber, nil
}

// Sync flushes all pending changes of the segment file to stable storage.
func (w *SegmentWriter) Sync() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("synching the segment file: %w", err)
	}
	return nil
}

// Truncate cuts the segment file at the current offset. This removes the unused pre-allocated part of the file before
// the segment is left behind for good.
func (w *SegmentWriter) Truncate() error {
	if err := w.file.Truncate(w.offset); err != nil {
		return fmt.Errorf("truncating the segment file: %w", err)
	}
	return nil
}

// Close flushes all pending changes to disk and closes the file.
func (w *SegmentWriter) Close() error {
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	return errors.Join(syncErr, closeErr)
}
