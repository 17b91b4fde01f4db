package wal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/backbone81/region-wal/internal/encoding"
)

var ErrRecordMalformed = errors.New("malformed WAL record")

// Record is one keyed entry of the write-ahead log: the key placing the edit in the total order of its region, plus
// the opaque edit payload.
type Record struct {
	Key  Key
	Edit []byte
}

// encodeRecord appends the record framing to output: the encoded key as uvarint-length-prefixed bytes, followed by
// the raw edit payload. The key is length-prefixed so the decoder can hand the key codec exactly the key bytes, which
// keeps old-format keys without the trailing cluster id decodable even when an edit payload follows them.
// keyBuffer and scratch are reusable buffers to avoid allocations, scratch must be at least KeyBufferLen bytes.
func encodeRecord(output *bytes.Buffer, keyBuffer *bytes.Buffer, scratch []byte, key *Key, edit []byte) error {
	keyBuffer.Reset()
	if err := key.Write(keyBuffer, scratch); err != nil {
		return err
	}

	n := binary.PutUvarint(scratch[:encoding.MaxLengthBufferLen], uint64(keyBuffer.Len()))
	output.Write(scratch[:n])
	output.Write(keyBuffer.Bytes())
	output.Write(edit)
	return nil
}

// decodeRecord parses a record from the entry data. The returned edit aliases the given data slice, the key owns its
// buffers. scratch must be at least KeyBufferLen bytes.
func decodeRecord(data []byte, scratch []byte) (Record, error) {
	reader := bytes.NewReader(data)

	keyLength, _, err := encoding.ReadUvarint(reader, scratch)
	if err != nil {
		return Record{}, recordError(fmt.Errorf("reading WAL record key length: %w", err))
	}
	if uint64(reader.Len()) < keyLength {
		return Record{}, recordError(errors.New("the WAL record key exceeds the record size"))
	}

	key := NewShellKey()
	keyReader := io.LimitedReader{R: reader, N: int64(keyLength)} //nolint:gosec // bounded by reader.Len above
	if err := key.Read(&keyReader, scratch); err != nil {
		return Record{}, recordError(fmt.Errorf("reading WAL record key: %w", err))
	}
	if keyReader.N != 0 {
		return Record{}, recordError(errors.New("the WAL record key has trailing bytes"))
	}

	return Record{
		Key:  key,
		Edit: data[len(data)-reader.Len():],
	}, nil
}

func recordError(err error) error {
	return errors.Join(ErrRecordMalformed, err)
}
