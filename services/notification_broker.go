package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"clinic_flow_app_go/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// subscriptionBuffer bounds how many undelivered inserts a slow subscriber may hold
const subscriptionBuffer = 64

// Subscription is a live stream of inserted notifications for a single user.
// Events are delivered in publish order. The channel is closed after Close.
type Subscription interface {
	Events() <-chan models.Notification
	Close() error
}

// InsertStream opens per-user insert subscriptions
type InsertStream interface {
	SubscribeInserts(ctx context.Context, userID string) (Subscription, error)
}

// InsertPublisher announces a freshly persisted notification to its owner's subscribers
type InsertPublisher interface {
	PublishInsert(ctx context.Context, n models.Notification) error
}

// NotificationBroker is both ends of the live insert channel
type NotificationBroker interface {
	InsertStream
	InsertPublisher
}

// MemoryBroker fans inserts out to subscribers within one process
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	logger *zap.Logger
}

func NewMemoryBroker(logger *zap.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[string]map[*memorySubscription]struct{}),
		logger: logger,
	}
}

type memorySubscription struct {
	broker *MemoryBroker
	userID string
	events chan models.Notification
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan models.Notification {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs[s.userID], s)
		if len(s.broker.subs[s.userID]) == 0 {
			delete(s.broker.subs, s.userID)
		}
		close(s.events)
		s.broker.mu.Unlock()
	})
	return nil
}

func (b *MemoryBroker) SubscribeInserts(ctx context.Context, userID string) (Subscription, error) {
	sub := &memorySubscription{
		broker: b,
		userID: userID,
		events: make(chan models.Notification, subscriptionBuffer),
	}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*memorySubscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	b.mu.Unlock()

	return sub, nil
}

// PublishInsert never blocks; a subscriber whose buffer is full misses the event
func (b *MemoryBroker) PublishInsert(ctx context.Context, n models.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[n.UserID] {
		select {
		case sub.events <- n:
		default:
			b.logger.Warn("dropping notification insert for slow subscriber",
				zap.String("user_id", n.UserID), zap.String("notification_id", n.ID))
		}
	}
	return nil
}

// SubscriberCount reports open subscriptions for a user
func (b *MemoryBroker) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

// RedisBroker carries inserts over Redis pub/sub, one channel per user
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, prefix: "clinic:notifications:", logger: logger}
}

func (b *RedisBroker) channel(userID string) string {
	return b.prefix + userID
}

func (b *RedisBroker) PublishInsert(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification insert: %w", err)
	}
	return nil
}

func (b *RedisBroker) SubscribeInserts(ctx context.Context, userID string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(userID))
	// wait for the subscription confirmation so no publish is missed after return
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to notification inserts: %w", err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan models.Notification, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(b.logger.With(zap.String("user_id", userID)))
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan models.Notification
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan models.Notification {
	return s.events
}

func (s *redisSubscription) pump(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		var n models.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			logger.Warn("discarding malformed notification insert", zap.Error(err))
			continue
		}
		select {
		case s.events <- n:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
