package wal_test

import (
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/segment"
	"github.com/backbone81/region-wal/internal/wal"
)

var _ = Describe("WAL", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-wal-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	for syncPolicyName, syncPolicy := range map[string]wal.WriterOption{
		"none":      wal.WithSyncPolicyNone(),
		"immediate": wal.WithSyncPolicyImmediate(),
		"periodic":  wal.WithSyncPolicyPeriodic(10, time.Millisecond),
		"grouped":   wal.WithSyncPolicyGrouped(time.Millisecond),
	} {
		Context(fmt.Sprintf("With sync policy %s", syncPolicyName), func() {
			It("should init, write keyed entries and read those entries back again", func() {
				By("initialize WAL")
				Expect(wal.Init(dir)).To(Succeed())

				By("move to end of WAL")
				reader, err := wal.NewReader(dir, 0)
				Expect(err).ToNot(HaveOccurred())
				Expect(reader.Header().FirstSequenceNumber).To(Equal(uint64(0)))
				Expect(reader.Next()).To(BeFalse())
				Expect(reader.Err()).To(MatchError(wal.ErrEntryNone))

				By("write to WAL")
				writer, err := reader.ToWriter(syncPolicy)
				Expect(err).ToNot(HaveOccurred())
				edits := [][]byte{
					[]byte("foo"),
					[]byte("bar"),
					[]byte("baz"),
				}
				for i, edit := range edits {
					sequenceNumber, err := writer.Append([]byte("r1"), []byte("t1"), edit)
					Expect(err).ToNot(HaveOccurred())
					Expect(sequenceNumber).To(Equal(uint64(i)))
				}
				Expect(writer.Close()).To(Succeed())

				By("re-open WAL and read the written entries")
				reader, err = wal.NewReader(dir, 0)
				Expect(err).ToNot(HaveOccurred())
				for i, edit := range edits {
					Expect(reader.Next()).To(BeTrue())
					value := reader.Value()
					Expect(value.SequenceNumber).To(Equal(uint64(i)))
					Expect(value.Edit).To(Equal(edit))
					Expect(value.Key.RegionName()).To(Equal([]byte("r1")))
					Expect(value.Key.TableName()).To(Equal([]byte("t1")))
					Expect(value.Key.SequenceNumber()).To(Equal(int64(i)))
					Expect(value.Key.WriteTime()).To(BeNumerically(">", 0))
					Expect(value.Key.ClusterID()).To(Equal(wal.DefaultClusterID))
				}
				Expect(reader.Next()).To(BeFalse())
				Expect(reader.Err()).To(MatchError(wal.ErrEntryNone))
				Expect(reader.Close()).To(Succeed())
			})
		})
	}

	It("should preserve the origin cluster id and write time on the replication ingest path", func() {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		writer, err := reader.ToWriter(wal.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())

		key := wal.NewKey([]byte("r1"), []byte("t1"), 999, 12345)
		key.SetClusterID(7)
		sequenceNumber, err := writer.AppendKeyed(key, []byte("replicated"))
		Expect(err).ToNot(HaveOccurred())
		Expect(sequenceNumber).To(Equal(uint64(0)))
		Expect(writer.Close()).To(Succeed())

		reader, err = wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeTrue())
		// The provisional sequence number of the key is replaced by the locally assigned one, everything else is
		// preserved.
		value := reader.Value()
		Expect(value.Key.SequenceNumber()).To(Equal(int64(0)))
		Expect(value.Key.WriteTime()).To(Equal(int64(12345)))
		Expect(value.Key.ClusterID()).To(Equal(byte(7)))
		Expect(value.Edit).To(Equal([]byte("replicated")))
		Expect(reader.Close()).To(Succeed())
	})

	It("should reject entries without a region or table name", func() {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		writer, err := reader.ToWriter(wal.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(writer.Close()).To(Succeed())
		}()

		Expect(writer.Append(nil, []byte("t1"), []byte("foo"))).Error().To(MatchError(wal.ErrKeyNameMissing))
		Expect(writer.Append([]byte("r1"), nil, []byte("foo"))).Error().To(MatchError(wal.ErrKeyNameMissing))
	})

	It("should roll over into new segments and read across them", func() {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		var rollovers int
		writer, err := reader.ToWriter(
			wal.WithSyncPolicyImmediate(),
			wal.WithPreAllocationSize(0),
			wal.WithMaxSegmentSize(encoding.HeaderSize+1),
			wal.WithRolloverCallback(func(previousSegment uint64, nextSegment uint64) {
				rollovers++
			}),
		)
		Expect(err).ToNot(HaveOccurred())

		entryCount := 5
		for i := range entryCount {
			Expect(writer.Append([]byte("r1"), []byte("t1"), fmt.Appendf(nil, "edit-%d", i))).Error().ToNot(HaveOccurred())
		}
		Expect(writer.Close()).To(Succeed())

		segments, err := segment.GetSegments(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(len(segments)).To(BeNumerically(">", 1))
		Expect(rollovers).To(Equal(len(segments) - 1))

		reader, err = wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		for i := range entryCount {
			Expect(reader.Next()).To(BeTrue())
			Expect(reader.Value().SequenceNumber).To(Equal(uint64(i)))
			Expect(reader.Value().Edit).To(Equal(fmt.Appendf(nil, "edit-%d", i)))
		}
		Expect(reader.Next()).To(BeFalse())
		Expect(reader.Close()).To(Succeed())
	})

	It("should start reading from a later sequence number", func() {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		writer, err := reader.ToWriter(wal.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())
		for i := range 5 {
			Expect(writer.Append([]byte("r1"), []byte("t1"), fmt.Appendf(nil, "edit-%d", i))).Error().ToNot(HaveOccurred())
		}
		Expect(writer.Close()).To(Succeed())

		reader, err = wal.NewReader(dir, 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeTrue())
		Expect(reader.Value().SequenceNumber).To(Equal(uint64(3)))
		Expect(reader.Value().Edit).To(Equal([]byte("edit-3")))
		Expect(reader.Close()).To(Succeed())
	})
})
