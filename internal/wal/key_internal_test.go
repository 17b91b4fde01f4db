package wal

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Key internals", func() {
	It("should assign the sequence number through the append path setter", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 0, 100)
		key.setSequence(42)
		Expect(key.SequenceNumber()).To(Equal(int64(42)))
	})

	It("should swap name buffers when interning byte-equal names", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)
		canonicalRegion := []byte("r1")
		canonicalTable := []byte("t1")

		before := key
		key.internRegionName(canonicalRegion)
		key.internTableName(canonicalTable)

		Expect(&key.regionName[0]).To(BeIdenticalTo(&canonicalRegion[0]))
		Expect(&key.tableName[0]).To(BeIdenticalTo(&canonicalTable[0]))
		Expect(key.Compare(&before)).To(Equal(0))
		Expect(key.Hash()).To(Equal(before.Hash()))
	})

	It("should panic when interning a differing region name", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)
		Expect(func() {
			key.internRegionName([]byte("r2"))
		}).To(PanicWith(ContainSubstring("interned region name")))
		Expect(key.RegionName()).To(Equal([]byte("r1")))
	})

	It("should panic when interning a differing table name", func() {
		key := NewKey([]byte("r1"), []byte("t1"), 5, 100)
		Expect(func() {
			key.internTableName([]byte("t2"))
		}).To(PanicWith(ContainSubstring("interned table name")))
		Expect(key.TableName()).To(Equal([]byte("t1")))
	})
})
