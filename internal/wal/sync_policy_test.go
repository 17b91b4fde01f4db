package wal

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/region-wal/internal/encoding"
	"github.com/backbone81/region-wal/internal/segment"
	"github.com/backbone81/region-wal/internal/utils"
)

// newDiscardSegmentWriter provides a segment writer backed by a file stub, so the sync policy lifecycle can be
// exercised without touching the disk.
func newDiscardSegmentWriter() *segment.SegmentWriter {
	GinkgoHelper()
	segmentWriter, err := segment.NewSegmentWriter(&utils.SegmentWriterFileDiscard{}, segment.NewSegmentWriterConfig{
		Header: encoding.DefaultHeader,
		Offset: encoding.HeaderSize,
	})
	Expect(err).ToNot(HaveOccurred())
	return segmentWriter
}

var _ = Describe("SyncPolicyGrouped", func() {
	It("should release an appender which is blocked across a segment rollover", func() {
		// The long sync interval makes sure only Shutdown() can cover the blocked appender.
		policy := NewSyncPolicyGrouped(time.Hour)
		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())

		done := make(chan error, 1)
		go func() {
			done <- policy.EntryAppended(5)
		}()
		Eventually(func() uint64 {
			policy.mutex.Lock()
			defer policy.mutex.Unlock()
			return policy.pendingSequenceNumber
		}).Should(Equal(uint64(6)))

		// This is the sequence the writer runs when it rolls over to the next segment.
		Expect(policy.Shutdown()).To(Succeed())
		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())

		var appendErr error
		Eventually(done).Should(Receive(&appendErr))
		Expect(appendErr).ToNot(HaveOccurred())
		Expect(policy.Shutdown()).To(Succeed())
	})

	It("should keep the sequence counters across a segment rollover", func() {
		policy := NewSyncPolicyGrouped(time.Millisecond)
		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())
		Expect(policy.EntryAppended(0)).To(Succeed())
		Expect(policy.Shutdown()).To(Succeed())

		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())
		Expect(policy.pendingSequenceNumber).To(Equal(uint64(1)))
		Expect(policy.syncedSequenceNumber).To(Equal(uint64(1)))
		Expect(policy.Shutdown()).To(Succeed())
	})

	It("should tolerate a repeated shutdown", func() {
		policy := NewSyncPolicyGrouped(time.Millisecond)
		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())
		Expect(policy.Shutdown()).To(Succeed())
		Expect(policy.Shutdown()).To(Succeed())
	})
})

var _ = Describe("SyncPolicyPeriodic", func() {
	It("should tolerate a repeated shutdown", func() {
		policy := NewSyncPolicyPeriodic(10, time.Millisecond)
		Expect(policy.Startup(newDiscardSegmentWriter())).To(Succeed())
		Expect(policy.Shutdown()).To(Succeed())
		Expect(policy.Shutdown()).To(Succeed())
	})
})
