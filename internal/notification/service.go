package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes on mailbox changes
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// UserResolver maps a linked Gmail address to a Ripple user id
type UserResolver interface {
	UserIDForGmail(ctx context.Context, email string) (string, error)
}

// SyncQueue accepts background sync jobs
type SyncQueue interface {
	Enqueue(job usecase.SyncJob) bool
}

// Service turns Gmail push notifications into mailbox syncs
type Service struct {
	pubsubClient *pubsub.Client
	users        UserResolver
	queue        SyncQueue
	topicName    string
	subName      string

	mu sync.Mutex
	// Deduplication: last historyId seen per user
	lastHistoryID map[string]uint64
}

func NewService(ctx context.Context, projectID, topicName, credentialsFile string, users UserResolver, queue SyncQueue) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	s := newHandler(users, queue)
	s.pubsubClient = client
	s.topicName = topicName
	s.subName = topicName + "-sub" // Convention: topic-sub
	return s, nil
}

func newHandler(users UserResolver, queue SyncQueue) *Service {
	return &Service{
		users:         users,
		queue:         queue,
		lastHistoryID: make(map[string]uint64),
	}
}

// Start receives notifications until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		log.Printf("[PubSub] %v", err)
		return
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.HandleNotification(ctx, msg.Data)
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("error checking subscription existence: %v", err)
	}
	if exists {
		return sub, nil
	}

	topic := s.pubsubClient.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("error checking topic existence: %v", err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
	}

	sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %v", err)
	}
	log.Printf("[PubSub] Created subscription: %s", s.subName)
	return sub, nil
}

// Close releases the Pub/Sub client
func (s *Service) Close() error {
	if s.pubsubClient == nil {
		return nil
	}
	return s.pubsubClient.Close()
}

// HandleNotification queues a sync for the notified mailbox. It reports
// whether a job was queued.
func (s *Service) HandleNotification(ctx context.Context, data []byte) bool {
	var notification GmailNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return false
	}
	if notification.EmailAddress == "" {
		return false
	}

	userID, err := s.users.UserIDForGmail(ctx, notification.EmailAddress)
	if err != nil {
		if !errors.Is(err, domain.ErrNotConnected) {
			log.Printf("[PubSub] Error resolving %s: %v", notification.EmailAddress, err)
		}
		return false
	}

	if !s.advance(userID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping stale notification for user %s (historyId %d)", userID, notification.HistoryID)
		return false
	}

	if !s.queue.Enqueue(usecase.SyncJob{UserID: userID, Trigger: usecase.TriggerNotification}) {
		log.Printf("[PubSub] Sync queue full, dropping notification for user %s", userID)
		return false
	}
	return true
}

// advance records historyID for userID unless an equal or newer one was seen
func (s *Service) advance(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[userID]; ok && historyID <= last {
		return false
	}
	s.lastHistoryID[userID] = historyID
	return true
}
