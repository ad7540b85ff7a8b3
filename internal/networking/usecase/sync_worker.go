package usecase

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
)

// SyncJob asks for one sync of a user's mailbox
type SyncJob struct {
	UserID  string
	Trigger string
}

// SyncWorkerService runs queued syncs in the background
type SyncWorkerService struct {
	syncer interface {
		SyncUser(ctx context.Context, userID, trigger string) (*domain.SyncReport, error)
	}
	jobQueue    chan SyncJob
	workerWg    sync.WaitGroup
	workerCount int
	jobTimeout  time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	pending map[string]struct{}
}

// NewSyncWorkerService creates a new sync worker service
func NewSyncWorkerService(syncer interface {
	SyncUser(ctx context.Context, userID, trigger string) (*domain.SyncReport, error)
}, workerCount int) *SyncWorkerService {
	if workerCount <= 0 {
		workerCount = 3
	}

	return &SyncWorkerService{
		syncer:      syncer,
		jobQueue:    make(chan SyncJob, 100),
		workerCount: workerCount,
		jobTimeout:  10 * time.Minute,
		pending:     make(map[string]struct{}),
	}
}

// Start starts the sync workers
func (s *SyncWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[SyncWorker] Started %d workers", s.workerCount)
}

// Stop stops accepting jobs and waits for running ones to finish
func (s *SyncWorkerService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.jobQueue)
	s.mu.Unlock()

	s.workerWg.Wait()
	log.Println("[SyncWorker] All workers stopped")
}

func (s *SyncWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.processJob(job)
	}

	log.Printf("[SyncWorker] Worker %d stopped", id)
}

func (s *SyncWorkerService) processJob(job SyncJob) {
	s.mu.Lock()
	delete(s.pending, job.UserID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	report, err := s.syncer.SyncUser(ctx, job.UserID, job.Trigger)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			log.Printf("[SyncWorker] Sync already running for user %s, dropping %s job", job.UserID, job.Trigger)
			return
		}
		log.Printf("[SyncWorker] Sync failed for user %s: %v", job.UserID, err)
		return
	}
	log.Printf("[SyncWorker] Synced user %s: %d networking of %d messages", job.UserID, report.NetworkingMessages, report.MessagesProcessed)
}

// Enqueue adds a job to the queue (non-blocking). A user that already has a
// job waiting is not queued twice; the waiting job will pick up new mail.
func (s *SyncWorkerService) Enqueue(job SyncJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if _, queued := s.pending[job.UserID]; queued {
		return true
	}

	select {
	case s.jobQueue <- job:
		s.pending[job.UserID] = struct{}{}
		return true
	default:
		return false // Queue full
	}
}
