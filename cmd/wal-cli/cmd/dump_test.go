package cmd

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/segment"
	"github.com/backbone81/region-wal/pkg/wal"
)

var _ = Describe("dump", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-dump-*")
		Expect(err).ToNot(HaveOccurred())
		directory = dir
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should dump all entries of the write-ahead log", func() {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		writer, err := reader.ToWriter(wal.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())
		Expect(writer.Append([]byte("r1"), []byte("t1"), []byte("foo"))).Error().ToNot(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		Expect(dumpCmd.RunE(dumpCmd, nil)).To(Succeed())
	})

	It("should report a record which cannot be decoded", func() {
		segmentWriter, err := segment.CreateSegment(dir, 0, segment.CreateSegmentConfig{
			PreAllocationSize:   segment.DefaultPreAllocationSize,
			EntryLengthEncoding: encoding.DefaultEntryLengthEncoding,
			EntryChecksumType:   encoding.DefaultEntryChecksumType,
		})
		Expect(err).ToNot(HaveOccurred())

		// The entry passes the segment checksum but does not hold a decodable record.
		Expect(segmentWriter.AppendEntry([]byte{0xff})).Error().ToNot(HaveOccurred())
		Expect(segmentWriter.Close()).To(Succeed())

		Expect(dumpCmd.RunE(dumpCmd, nil)).To(MatchError(wal.ErrRecordMalformed))
	})
})
