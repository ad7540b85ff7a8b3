package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/usecase"
)

// ConnectionLister lists users with a linked Gmail account
type ConnectionLister interface {
	ListConnected(ctx context.Context) ([]domain.Connection, error)
}

// SyncQueue accepts background sync jobs
type SyncQueue interface {
	Enqueue(job usecase.SyncJob) bool
}

// Poller periodically queues a sync for every connected mailbox
type Poller struct {
	connections ConnectionLister
	queue       SyncQueue
	interval    time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewPoller creates a new poller. A zero interval disables polling.
func NewPoller(connections ConnectionLister, queue SyncQueue, interval time.Duration) *Poller {
	return &Poller{
		connections: connections,
		queue:       queue,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the polling loop
func (p *Poller) Start() {
	if p.interval <= 0 {
		log.Println("[Poller] Poll interval is 0, polling disabled")
		return
	}

	log.Printf("[Poller] Starting mailbox poller (interval: %s)", p.interval)

	go func() {
		// Run immediately on start
		p.Poll(context.Background())

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.Poll(context.Background())
			case <-p.stopChan:
				log.Println("[Poller] Poller stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the poller
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// Poll queues one sync per connected user and returns how many were queued
func (p *Poller) Poll(ctx context.Context) int {
	connections, err := p.connections.ListConnected(ctx)
	if err != nil {
		log.Printf("[Poller] Error listing connected mailboxes: %v", err)
		return 0
	}

	queued := 0
	for _, c := range connections {
		if p.queue.Enqueue(usecase.SyncJob{UserID: c.UserID, Trigger: usecase.TriggerPoll}) {
			queued++
		} else {
			log.Printf("[Poller] Sync queue full, skipping user %s", c.UserID)
		}
	}
	if queued > 0 {
		log.Printf("[Poller] Queued %d mailbox syncs", queued)
	}
	return queued
}
