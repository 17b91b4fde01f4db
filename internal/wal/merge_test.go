package wal_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/region-wal/internal/wal"
)

var _ = Describe("MergeReader", func() {
	var dirA string
	var dirB string

	BeforeEach(func() {
		var err error
		dirA, err = os.MkdirTemp("", "test-merge-a-*")
		Expect(err).ToNot(HaveOccurred())
		dirB, err = os.MkdirTemp("", "test-merge-b-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dirA)).To(Succeed())
		Expect(os.RemoveAll(dirB)).To(Succeed())
	})

	// fillLog writes the given entries to a fresh write-ahead log in the given directory. The write times are fixed so
	// the merged order is deterministic.
	fillLog := func(dir string, clusterID byte, entries []logEntry) {
		Expect(wal.Init(dir)).To(Succeed())

		reader, err := wal.NewReader(dir, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Next()).To(BeFalse())

		writer, err := reader.ToWriter(wal.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())
		for _, entry := range entries {
			key := wal.NewKey([]byte(entry.region), []byte(entry.table), 0, entry.writeTime)
			key.SetClusterID(clusterID)
			Expect(writer.AppendKeyed(key, []byte(entry.edit))).Error().ToNot(HaveOccurred())
		}
		Expect(writer.Close()).To(Succeed())
	}

	openMerge := func(options ...wal.MergeOption) *wal.MergeReader {
		readerA, err := wal.NewReader(dirA, 0)
		Expect(err).ToNot(HaveOccurred())
		readerB, err := wal.NewReader(dirB, 0)
		Expect(err).ToNot(HaveOccurred())

		merge, err := wal.NewMergeReader([]*wal.Reader{readerA, readerB}, options...)
		Expect(err).ToNot(HaveOccurred())
		return merge
	}

	// Each log is seeded in key order, the merge assumes sorted inputs.
	BeforeEach(func() {
		fillLog(dirA, 0, []logEntry{
			{region: "r1", table: "t1", writeTime: 100, edit: "a0"},
			{region: "r1", table: "t1", writeTime: 300, edit: "a1"},
			{region: "r2", table: "t1", writeTime: 200, edit: "a2"},
		})
		fillLog(dirB, 7, []logEntry{
			{region: "r1", table: "t1", writeTime: 150, edit: "b0"},
			{region: "r3", table: "t1", writeTime: 250, edit: "b1"},
		})
	})

	It("should merge several logs in key order", func() {
		merge := openMerge()
		defer func() {
			Expect(merge.Close()).To(Succeed())
		}()

		// Within a region, entries order by sequence number first and write time second. Across regions, the region
		// name decides.
		var edits []string
		for merge.Next() {
			edits = append(edits, string(merge.Value().Edit))
		}
		Expect(merge.Err()).To(MatchError(wal.ErrEntryNone))
		Expect(edits).To(Equal([]string{"a0", "b0", "a1", "a2", "b1"}))
	})

	It("should skip entries from an excluded cluster", func() {
		merge := openMerge(wal.WithSkipCluster(7))
		defer func() {
			Expect(merge.Close()).To(Succeed())
		}()

		var edits []string
		for merge.Next() {
			value := merge.Value()
			Expect(value.Key.ClusterID()).ToNot(Equal(byte(7)))
			edits = append(edits, string(value.Edit))
		}
		Expect(edits).To(Equal([]string{"a0", "a1", "a2"}))
	})

	It("should intern the names of yielded keys through the key cache", func() {
		cache := wal.NewKeyCache()
		merge := openMerge(wal.WithKeyCache(cache))
		defer func() {
			Expect(merge.Close()).To(Succeed())
		}()

		var previousKey *wal.Key
		for merge.Next() {
			value := merge.Value()
			if previousKey != nil && string(previousKey.RegionName()) == string(value.Key.RegionName()) {
				Expect(&previousKey.RegionName()[0]).To(BeIdenticalTo(&value.Key.RegionName()[0]))
			}
			key := value.Key
			previousKey = &key
		}

		// Three distinct regions plus one table name.
		Expect(cache.Len()).To(Equal(4))
	})

	It("should merge when one log is empty", func() {
		emptyDir, err := os.MkdirTemp("", "test-merge-empty-*")
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(os.RemoveAll(emptyDir)).To(Succeed())
		}()
		Expect(wal.Init(emptyDir)).To(Succeed())

		readerA, err := wal.NewReader(dirA, 0)
		Expect(err).ToNot(HaveOccurred())
		readerEmpty, err := wal.NewReader(emptyDir, 0)
		Expect(err).ToNot(HaveOccurred())

		merge, err := wal.NewMergeReader([]*wal.Reader{readerA, readerEmpty})
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(merge.Close()).To(Succeed())
		}()

		var edits []string
		for merge.Next() {
			edits = append(edits, string(merge.Value().Edit))
		}
		Expect(edits).To(Equal([]string{"a0", "a1", "a2"}))
	})
})

// logEntry describes one entry to seed a test log with.
type logEntry struct {
	region    string
	table     string
	writeTime int64
	edit      string
}
