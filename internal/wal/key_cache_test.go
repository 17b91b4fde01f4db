package wal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/region-wal/internal/wal"
)

var _ = Describe("KeyCache", func() {
	It("should share one name buffer across keys with equal names", func() {
		cache := wal.NewKeyCache()
		first := wal.NewKey([]byte("r1"), []byte("t1"), 5, 100)
		second := wal.NewKey([]byte("r1"), []byte("t1"), 6, 200)

		cache.Intern(&first)
		cache.Intern(&second)

		Expect(&first.RegionName()[0]).To(BeIdenticalTo(&second.RegionName()[0]))
		Expect(&first.TableName()[0]).To(BeIdenticalTo(&second.TableName()[0]))
		Expect(cache.Len()).To(Equal(2))
	})

	It("should keep the logical value of interned keys unchanged", func() {
		cache := wal.NewKeyCache()
		key := wal.NewKey([]byte("r1"), []byte("t1"), 5, 100)
		before := wal.NewKey([]byte("r1"), []byte("t1"), 5, 100)

		cache.Intern(&key)

		Expect(key.Compare(&before)).To(Equal(0))
		Expect(key.Hash()).To(Equal(before.Hash()))
		Expect(key.RegionName()).To(Equal([]byte("r1")))
		Expect(key.TableName()).To(Equal([]byte("t1")))
	})

	It("should copy the name out of a reusable decode buffer", func() {
		cache := wal.NewKeyCache()
		buffer := []byte("r1")
		key := wal.NewKey(buffer, []byte("t1"), 5, 100)

		cache.Intern(&key)
		buffer[0] = 'X'

		Expect(key.RegionName()).To(Equal([]byte("r1")))
	})

	It("should count distinct names only", func() {
		cache := wal.NewKeyCache()
		for i := range int64(10) {
			key := wal.NewKey([]byte("r1"), []byte("t1"), i, 100)
			cache.Intern(&key)
		}
		Expect(cache.Len()).To(Equal(2))
	})

	It("should tolerate absent names", func() {
		cache := wal.NewKeyCache()
		key := wal.NewKey(nil, nil, 5, 100)

		cache.Intern(&key)

		Expect(key.RegionName()).To(BeNil())
		Expect(key.TableName()).To(BeNil())
		Expect(cache.Len()).To(Equal(0))
	})
})
