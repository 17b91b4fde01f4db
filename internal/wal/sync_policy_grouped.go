package wal

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/backbone81/region-wal/internal/segment"
)

// SyncPolicyGrouped is batching the flushes of multiple concurrently appended entries into a single sync. Every
// EntryAppended call blocks until a sync covering its entry has happened, so durability matches SyncPolicyImmediate
// while the number of actual syncs stays low under concurrent load.
type SyncPolicyGrouped struct {
	syncAfter time.Duration

	segmentWriter     *segment.SegmentWriter
	syncTimer         *time.Timer
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup
	backgroundSync    sync.Cond

	mutex                 sync.Mutex
	pendingSequenceNumber uint64
	syncedSequenceNumber  uint64
	syncErr               error
	syncTimerActive       bool
}

// SyncPolicyGrouped implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyGrouped)(nil)

// NewSyncPolicyGrouped creates a new SyncPolicyGrouped.
func NewSyncPolicyGrouped(syncAfter time.Duration) *SyncPolicyGrouped {
	newPolicy := SyncPolicyGrouped{
		syncAfter: max(syncAfter, 100*time.Microsecond),
	}
	newPolicy.backgroundSync.L = &newPolicy.mutex
	return &newPolicy
}

func (s *SyncPolicyGrouped) Startup(segmentWriter *segment.SegmentWriter) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.segmentWriter = segmentWriter
	s.syncTimer = time.NewTimer(math.MaxInt64)
	s.shutdown = make(chan struct{})
	// The pending and synced sequence numbers are NOT reset. Sequence numbers are monotonic across segment
	// rollovers, and an appender blocked across a rollover still waits on the counters of the previous segment.
	s.syncErr = nil
	s.syncTimerActive = false
	s.shutdownWaitGroup.Add(1)
	go s.backgroundTask(s.shutdown)
	return nil
}

func (s *SyncPolicyGrouped) EntryAppended(sequenceNumber uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.syncTimerActive {
		s.syncTimer.Reset(s.syncAfter)
		s.syncTimerActive = true
	}
	if s.pendingSequenceNumber < sequenceNumber+1 {
		s.pendingSequenceNumber = sequenceNumber + 1
	}

	// Wait until the background task has flushed a state which covers our entry.
	for s.syncErr == nil && s.syncedSequenceNumber < sequenceNumber+1 {
		s.backgroundSync.Wait()
	}
	return s.syncErr
}

func (s *SyncPolicyGrouped) Shutdown() error {
	s.mutex.Lock()
	if s.shutdown == nil {
		// Already shut down. The writer calls Shutdown again through Close() when a rollover failed half way.
		s.mutex.Unlock()
		return nil
	}
	close(s.shutdown)
	s.shutdown = nil
	s.mutex.Unlock()

	s.shutdownWaitGroup.Wait()
	s.syncTimer.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	defer s.backgroundSync.Broadcast() // Wake up any appender which is still waiting for its entry to be covered.
	if s.syncErr != nil {
		return s.syncErr
	}
	return s.syncPending()
}

// syncPending flushes the segment writer if there are entries not yet covered by a sync. The caller needs to hold the
// mutex.
func (s *SyncPolicyGrouped) syncPending() error {
	if s.syncedSequenceNumber == s.pendingSequenceNumber {
		return nil
	}
	pending := s.pendingSequenceNumber

	// The actual file sync must happen without the mutex held, otherwise appenders could not register their entries
	// while the disk is busy.
	s.mutex.Unlock()
	err := s.segmentWriter.Sync()
	s.mutex.Lock()

	if err != nil {
		s.syncErr = fmt.Errorf("grouped WAL sync: %w", err)
		return s.syncErr
	}
	if s.syncedSequenceNumber < pending {
		s.syncedSequenceNumber = pending
	}
	return nil
}

func (s *SyncPolicyGrouped) backgroundTask(shutdown <-chan struct{}) {
	defer s.shutdownWaitGroup.Done()
	for {
		select {
		case <-shutdown:
			return
		case <-s.syncTimer.C:
			s.mutex.Lock()
			s.syncTimerActive = false
			_ = s.syncPending() // The error is stored in syncErr and handed to the waiting appenders.
			s.backgroundSync.Broadcast()
			s.mutex.Unlock()
		}
	}
}
