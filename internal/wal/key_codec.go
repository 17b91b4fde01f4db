package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/backbone81/region-wal/internal/encoding"
)

var ErrKeyNameTooLarge = errors.New("the WAL key name exceeds the maximum possible size")

// MaxNameLength is the maximum length in bytes of a region or table name. Real names are tiny, the bound exists to
// reject malformed length prefixes before they turn into large memory allocations.
const MaxNameLength = 1 << 20

// KeyBufferLen is the size of the scratch buffer required by Key.Write and Key.Read.
const KeyBufferLen = max(encoding.MaxLengthBufferLen, 8)

// keyEndian is the endianness of the fixed-width integers in the encoded key. Keys use big-endian, unlike the segment
// framing: the key format predates the segment format and is shared with logs written by other tooling, changing it
// would break decoding of existing logs.
var keyEndian = binary.BigEndian

// Write serializes the key to the writer.
// The buffer is required to avoid allocations and must be at least KeyBufferLen bytes.
//
// The field order is: region name and table name, each as uvarint-length-prefixed bytes with a nil name encoded as a
// zero length, then sequence number and write time as 8-byte big-endian integers, then the cluster id as a single
// raw byte.
func (k *Key) Write(writer io.Writer, buffer []byte) error {
	if err := writeName(writer, buffer, k.regionName, "region name"); err != nil {
		return err
	}
	if err := writeName(writer, buffer, k.tableName, "table name"); err != nil {
		return err
	}

	keyEndian.PutUint64(buffer[:8], uint64(k.logSeqNum)) //nolint:gosec // the decoder restores the bit pattern as is
	if _, err := writer.Write(buffer[:8]); err != nil {
		return fmt.Errorf("writing WAL key sequence number: %w", err)
	}

	keyEndian.PutUint64(buffer[:8], uint64(k.writeTime)) //nolint:gosec // the decoder restores the bit pattern as is
	if _, err := writer.Write(buffer[:8]); err != nil {
		return fmt.Errorf("writing WAL key write time: %w", err)
	}

	buffer[0] = k.clusterID
	if _, err := writer.Write(buffer[:1]); err != nil {
		return fmt.Errorf("writing WAL key cluster id: %w", err)
	}
	return nil
}

// Read populates the key from the reader, mirroring the field order of Write.
// The buffer is required to avoid allocations and must be at least KeyBufferLen bytes.
//
// The cluster id read is the one exception to strict mirroring: a stream ending cleanly right before the cluster id
// byte is an old-format key which predates that field. The read succeeds and the cluster id keeps the value the key
// held before, which is the default for a freshly constructed shell. Every other truncation and every malformed
// length prefix is a hard error.
func (k *Key) Read(reader io.Reader, buffer []byte) error {
	regionName, err := readName(reader, buffer, "region name")
	if err != nil {
		return err
	}
	tableName, err := readName(reader, buffer, "table name")
	if err != nil {
		return err
	}

	if _, err := io.ReadFull(reader, buffer[:8]); err != nil {
		return fmt.Errorf("reading WAL key sequence number: %w", truncated(err))
	}
	logSeqNum := int64(keyEndian.Uint64(buffer[:8])) //nolint:gosec // the encoder stored the bit pattern as is

	if _, err := io.ReadFull(reader, buffer[:8]); err != nil {
		return fmt.Errorf("reading WAL key write time: %w", truncated(err))
	}
	writeTime := int64(keyEndian.Uint64(buffer[:8])) //nolint:gosec // the encoder stored the bit pattern as is

	// Only populate the key after all required fields were read. A failed read must not leave a half populated key
	// behind.
	k.regionName = regionName
	k.tableName = tableName
	k.logSeqNum = logSeqNum
	k.writeTime = writeTime

	if _, err := io.ReadFull(reader, buffer[:1]); err != nil {
		if errors.Is(err, io.EOF) {
			// This is an old-format key without the trailing cluster id. The key keeps its current cluster id.
			return nil
		}
		return fmt.Errorf("reading WAL key cluster id: %w", err)
	}
	k.clusterID = buffer[0]
	return nil
}

func writeName(writer io.Writer, buffer []byte, name []byte, field string) error {
	if MaxNameLength < len(name) {
		return fmt.Errorf("writing WAL key %s: %w", field, ErrKeyNameTooLarge)
	}

	n := binary.PutUvarint(buffer[:encoding.MaxLengthBufferLen], uint64(len(name)))
	if _, err := writer.Write(buffer[:n]); err != nil {
		return fmt.Errorf("writing WAL key %s length: %w", field, err)
	}
	if len(name) == 0 {
		return nil
	}
	if _, err := writer.Write(name); err != nil {
		return fmt.Errorf("writing WAL key %s: %w", field, err)
	}
	return nil
}

func readName(reader io.Reader, buffer []byte, field string) ([]byte, error) {
	length, _, err := encoding.ReadUvarint(reader, buffer)
	if err != nil {
		return nil, fmt.Errorf("reading WAL key %s length: %w", field, truncated(err))
	}
	if MaxNameLength < length {
		return nil, fmt.Errorf("reading WAL key %s: %w", field, ErrKeyNameTooLarge)
	}
	if length == 0 {
		// A zero length marks an absent name.
		return nil, nil
	}

	name := make([]byte, length)
	if _, err := io.ReadFull(reader, name); err != nil {
		return nil, fmt.Errorf("reading WAL key %s: %w", field, truncated(err))
	}
	return name, nil
}

// truncated converts a clean end-of-input into io.ErrUnexpectedEOF. Inside the required fields of a key, running out
// of input means the key is cut short, which must not look like a clean end of stream to the caller.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
