package wal

import (
	"bytes"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record", func() {
	var keyBuffer bytes.Buffer
	var scratch [KeyBufferLen]byte

	It("should round-trip a record", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)
		key.SetClusterID(3)

		var output bytes.Buffer
		Expect(encodeRecord(&output, &keyBuffer, scratch[:], &key, []byte("edit"))).To(Succeed())

		record, err := decodeRecord(output.Bytes(), scratch[:])
		Expect(err).ToNot(HaveOccurred())
		Expect(record.Key.Equal(&key)).To(BeTrue())
		Expect(record.Key.ClusterID()).To(Equal(byte(3)))
		Expect(record.Edit).To(Equal([]byte("edit")))
	})

	It("should round-trip a record with an empty edit", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)

		var output bytes.Buffer
		Expect(encodeRecord(&output, &keyBuffer, scratch[:], &key, nil)).To(Succeed())

		record, err := decodeRecord(output.Bytes(), scratch[:])
		Expect(err).ToNot(HaveOccurred())
		Expect(record.Key.Equal(&key)).To(BeTrue())
		Expect(record.Edit).To(BeEmpty())
	})

	It("should decode a record whose key predates the cluster id", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)

		var intermediate bytes.Buffer
		Expect(key.Write(&intermediate, scratch[:])).To(Succeed())
		oldKey := intermediate.Bytes()[:intermediate.Len()-1]

		// Reframe the record around the shortened key, the way an old writer would have.
		var output bytes.Buffer
		var lengthBuffer [KeyBufferLen]byte
		n := binary.PutUvarint(lengthBuffer[:], uint64(len(oldKey)))
		output.Write(lengthBuffer[:n])
		output.Write(oldKey)
		output.WriteString("edit")

		record, err := decodeRecord(output.Bytes(), scratch[:])
		Expect(err).ToNot(HaveOccurred())
		Expect(record.Key.Equal(&key)).To(BeTrue())
		Expect(record.Key.ClusterID()).To(Equal(DefaultClusterID))
		Expect(record.Edit).To(Equal([]byte("edit")))
	})

	It("should fail decoding a record whose key length exceeds the record", func() {
		var output bytes.Buffer
		output.Write([]byte{0x7f})
		output.WriteString("short")

		Expect(decodeRecord(output.Bytes(), scratch[:])).Error().To(MatchError(ErrRecordMalformed))
	})

	It("should fail decoding a record with a truncated key", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)

		var output bytes.Buffer
		Expect(encodeRecord(&output, &keyBuffer, scratch[:], &key, nil)).To(Succeed())

		Expect(decodeRecord(output.Bytes()[:output.Len()-12], scratch[:])).Error().To(MatchError(ErrRecordMalformed))
	})

	It("should fail decoding an empty record", func() {
		Expect(decodeRecord(nil, scratch[:])).Error().To(MatchError(ErrRecordMalformed))
	})
})
