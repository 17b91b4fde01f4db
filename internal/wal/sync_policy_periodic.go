package wal

import (
	"log"
	"sync"
	"time"

	"github.com/backbone81/region-wal/internal/segment"
)

// SyncPolicyPeriodic is flushing segments to disk after having written some number of entries, or after some time
// interval has passed, whatever happens first.
type SyncPolicyPeriodic struct {
	mutex sync.Mutex

	syncAfterEntryCount int
	syncEvery           time.Duration

	segmentWriter     *segment.SegmentWriter
	syncTicker        *time.Ticker
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup

	unsyncedEntryCount int
}

// SyncPolicyPeriodic implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyPeriodic)(nil)

// NewSyncPolicyPeriodic creates a new SyncPolicyPeriodic.
func NewSyncPolicyPeriodic(syncAfterEntryCount int, syncEvery time.Duration) *SyncPolicyPeriodic {
	return &SyncPolicyPeriodic{
		syncAfterEntryCount: max(syncAfterEntryCount, 1),
		syncEvery:           max(syncEvery, 100*time.Microsecond),
	}
}

func (s *SyncPolicyPeriodic) Startup(segmentWriter *segment.SegmentWriter) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.segmentWriter = segmentWriter
	s.syncTicker = time.NewTicker(s.syncEvery)
	s.shutdown = make(chan struct{})
	s.shutdownWaitGroup.Add(1)
	go s.backgroundTask(s.shutdown)
	return nil
}

func (s *SyncPolicyPeriodic) EntryAppended(sequenceNumber uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.unsyncedEntryCount++
	if s.unsyncedEntryCount < s.syncAfterEntryCount {
		return nil
	}

	if err := s.syncNow(); err != nil {
		return err
	}
	return nil
}

func (s *SyncPolicyPeriodic) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.shutdown == nil {
		// Already shut down. The writer calls Shutdown again through Close() when a rollover failed half way.
		return nil
	}
	s.syncTicker.Stop()
	close(s.shutdown)
	s.shutdown = nil

	// We need to unlock the mutex while waiting for the shutdown, otherwise we run the risk of a deadlock.
	s.mutex.Unlock()
	s.shutdownWaitGroup.Wait()
	s.mutex.Lock()

	if err := s.syncNow(); err != nil {
		return err
	}
	return nil
}

// syncNow flushes the segment writer and resets the entry counter. The caller needs to hold the mutex.
func (s *SyncPolicyPeriodic) syncNow() error {
	if s.unsyncedEntryCount == 0 {
		return nil
	}
	if err := s.segmentWriter.Sync(); err != nil {
		return err
	}
	s.unsyncedEntryCount = 0
	return nil
}

func (s *SyncPolicyPeriodic) backgroundTask(shutdown <-chan struct{}) {
	defer s.shutdownWaitGroup.Done()
	for {
		select {
		case <-shutdown:
			return
		case <-s.syncTicker.C:
			s.mutex.Lock()
			if err := s.syncNow(); err != nil {
				// There is no caller to hand this error to from the background task. The next foreground sync will
				// hit the same error and report it.
				log.Printf("WARNING: periodic WAL sync failed: %v\n", err)
			}
			s.mutex.Unlock()
		}
	}
}
