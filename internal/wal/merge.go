package wal

import (
	"container/heap"
	"errors"
	"os"

	"github.com/backbone81/region-wal/internal/utils"
)

// MergeReader merges the entries of several write-ahead logs into a single stream ordered by key. This is the replay
// path after a region moved between log owners: the edits of one region can be spread over several logs, and recovery
// needs them in region order, not in per-log order.
//
// Instances of this struct are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type MergeReader struct {
	noCopy utils.NoCopy

	sources mergeHeap

	// The source whose value was handed out by the last call to Next(). It is advanced lazily on the following call,
	// so the edit payload handed out stays valid in between.
	yielded *mergeSource

	// Readers which ran out of entries. They are kept around so that Close can release all files.
	drained []*Reader

	skipClusters map[byte]struct{}
	keyCache     *KeyCache

	value ReaderValue
	err   error
}

// MergeOption describes the function signature which all merge reader options need to implement.
type MergeOption func(m *MergeReader)

// WithSkipCluster drops all entries which originated from the given cluster. The replication sink uses this to avoid
// shipping entries back to the cluster they came from. Can be given multiple times.
func WithSkipCluster(clusterID byte) MergeOption {
	return func(m *MergeReader) {
		m.skipClusters[clusterID] = struct{}{}
	}
}

// WithKeyCache interns the region and table names of every yielded key in the given cache. Merged logs repeat the
// same few names over and over, interning collapses them to one buffer each.
func WithKeyCache(keyCache *KeyCache) MergeOption {
	return func(m *MergeReader) {
		m.keyCache = keyCache
	}
}

// NewMergeReader creates a MergeReader over the given readers. The readers are owned by the merge reader afterward
// and are closed through MergeReader.Close.
func NewMergeReader(readers []*Reader, options ...MergeOption) (*MergeReader, error) {
	newReader := MergeReader{
		sources:      make(mergeHeap, 0, len(readers)),
		skipClusters: make(map[byte]struct{}),
	}
	for _, option := range options {
		option(&newReader)
	}

	for i, reader := range readers {
		source := &mergeSource{reader: reader}
		ok, err := source.advance()
		if err != nil {
			errs := []error{err, newReader.Close()}
			for _, remaining := range readers[i:] {
				errs = append(errs, remaining.Close())
			}
			return nil, errors.Join(errs...)
		}
		if !ok {
			// The log holds no entries at all. We still own the reader and need to close it eventually.
			newReader.drained = append(newReader.drained, reader)
			continue
		}
		source.index = len(newReader.sources)
		newReader.sources = append(newReader.sources, source)
	}
	heap.Init(&newReader.sources)
	return &newReader, nil
}

// Next reports if an entry has been successfully read. When it returns true, Err() returns nil and Value() contains
// valid data. When it returns false, Err() contains the error and Value() contains invalid data.
func (m *MergeReader) Next() bool {
	if m.err = m.next(); m.err != nil {
		return false
	}
	return true
}

func (m *MergeReader) next() error {
	// Advance the source we handed out last. This is deferred until now so that the edit payload of the previous
	// value stayed valid for the caller.
	if m.yielded != nil {
		source := m.yielded
		m.yielded = nil
		ok, err := source.advance()
		if err != nil {
			return err
		}
		if ok {
			heap.Fix(&m.sources, source.index)
		} else {
			heap.Remove(&m.sources, source.index)
			m.drained = append(m.drained, source.reader)
		}
	}

	for {
		if len(m.sources) == 0 {
			return ErrEntryNone
		}

		source := m.sources[0]
		if _, skip := m.skipClusters[source.value.Key.ClusterID()]; skip {
			// The value was never handed out, so advancing right away is safe.
			ok, err := source.advance()
			if err != nil {
				return err
			}
			if ok {
				heap.Fix(&m.sources, source.index)
			} else {
				heap.Remove(&m.sources, source.index)
				m.drained = append(m.drained, source.reader)
			}
			continue
		}

		m.value = source.value
		if m.keyCache != nil {
			m.keyCache.Intern(&m.value.Key)
		}
		m.yielded = source
		return nil
	}
}

// Value returns the last entry read from the merged logs. The values are only valid after the first call to Next()
// and while Err() is nil.
func (m *MergeReader) Value() ReaderValue {
	return m.value
}

// Err returns the error for the last call to Next().
// Returns ErrEntryNone when all logs are exhausted.
func (m *MergeReader) Err() error {
	return m.err
}

// Close closes all readers the merge reader was created with.
func (m *MergeReader) Close() error {
	var errs []error
	for _, source := range m.sources {
		errs = append(errs, source.reader.Close())
	}
	m.sources = nil
	for _, reader := range m.drained {
		errs = append(errs, reader.Close())
	}
	m.drained = nil
	m.yielded = nil
	return errors.Join(errs...)
}

// mergeSource is one log feeding the merge, together with its current front entry.
type mergeSource struct {
	reader *Reader
	value  ReaderValue

	// The position in the heap, maintained by the heap implementation through Swap.
	index int
}

// advance moves the source to its next entry. It reports false when the log is exhausted, which the underlying reader
// signals either through ErrEntryNone or through a missing next segment file.
func (s *mergeSource) advance() (bool, error) {
	if s.reader.Next() {
		s.value = s.reader.Value()
		return true, nil
	}

	err := s.reader.Err()
	if errors.Is(err, ErrEntryNone) || errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// mergeHeap orders the sources by their front entry key so that the smallest key is always at the top.
type mergeHeap []*mergeSource

func (h mergeHeap) Len() int {
	return len(h)
}

func (h mergeHeap) Less(i, j int) bool {
	return h[i].value.Key.Compare(&h[j].value.Key) < 0
}

func (h mergeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *mergeHeap) Push(x any) {
	source := x.(*mergeSource) //nolint:errcheck // the heap only ever holds merge sources
	source.index = len(*h)
	*h = append(*h, source)
}

func (h *mergeHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return last
}
