package services

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"clinic_flow_app_go/models"

	"go.uber.org/zap"
)

type FeedOption func(*NotificationFeed)

// WithHistoryLimit sets how many notifications the initial fetch loads
func WithHistoryLimit(n int) FeedOption {
	return func(f *NotificationFeed) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithFeedTimeout bounds every store call made by the feed
func WithFeedTimeout(d time.Duration) FeedOption {
	return func(f *NotificationFeed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFeedListener is called after every change to the local list or loading state
func WithFeedListener(fn func()) FeedOption {
	return func(f *NotificationFeed) { f.onChange = fn }
}

// NotificationFeed keeps a user's recent notifications in memory, combining one
// bounded fetch with the live insert stream and optimistic local mutations.
//
// The list is newest first. Mutations apply locally before the store write and
// are rolled back to the exact prior value if the write fails. Store failures
// are logged and never surface from the public methods.
type NotificationFeed struct {
	store     NotificationStore
	stream    InsertStream
	navigator Navigator
	logger    *zap.Logger
	limit     int
	timeout   time.Duration
	onChange  func()

	mu         sync.Mutex
	userID     string
	generation uint64
	items      []models.Notification
	loading    bool
	// inserts that arrived while the initial fetch was outstanding
	pending []models.Notification
	sub     Subscription
	closed  bool
	// latest read-flag write per notification id; only that write may roll back
	readWrites map[string]uint64
	writeSeq   uint64
}

func NewNotificationFeed(store NotificationStore, stream InsertStream, navigator Navigator, logger *zap.Logger, opts ...FeedOption) *NotificationFeed {
	f := &NotificationFeed{
		store:     store,
		stream:    stream,
		navigator: navigator,
		logger:    logger,
		limit:     DefaultNotificationHistory,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetUser (re)establishes the feed for userID: the previous subscription is torn
// down, a new one is opened, then the recent history replaces the local list.
// It returns once the initial fetch has finished. An empty userID clears the feed.
func (f *NotificationFeed) SetUser(ctx context.Context, userID string) {
	f.mu.Lock()
	if f.closed || f.userID == userID {
		f.mu.Unlock()
		return
	}
	f.teardownLocked()
	f.generation++
	gen := f.generation
	f.userID = userID
	f.items = nil
	f.readWrites = nil
	f.loading = userID != ""
	f.mu.Unlock()
	f.notify()

	if userID == "" {
		return
	}

	// subscribe before fetching so nothing created in between is lost
	sub, err := f.stream.SubscribeInserts(ctx, userID)
	if err != nil {
		f.logger.Warn("live notifications unavailable", zap.String("user_id", userID), zap.Error(err))
	} else {
		f.mu.Lock()
		if gen != f.generation {
			f.mu.Unlock()
			sub.Close()
			return
		}
		f.sub = sub
		f.mu.Unlock()
		go f.consume(gen, sub)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	items, err := f.store.RecentNotifications(fetchCtx, userID, f.limit)
	cancel()

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return
	}
	if err != nil {
		f.logger.Error("failed to load notifications", zap.String("user_id", userID), zap.Error(err))
	} else {
		f.items = items
	}
	pending := f.pending
	f.pending = nil
	f.loading = false
	for _, n := range pending {
		f.insertLocked(n)
	}
	f.mu.Unlock()
	f.notify()
}

func (f *NotificationFeed) consume(gen uint64, sub Subscription) {
	for n := range sub.Events() {
		f.mu.Lock()
		if gen != f.generation {
			f.mu.Unlock()
			return
		}
		if n.UserID != f.userID {
			f.mu.Unlock()
			continue
		}
		if f.loading {
			f.pending = append(f.pending, n)
			f.mu.Unlock()
			continue
		}
		changed := f.insertLocked(n)
		f.mu.Unlock()
		if changed {
			f.notify()
		}
	}
}

// insertLocked adds a live insert. In-order inserts are prepended; a duplicate id
// is ignored; an insert older than the current head is placed at its
// newest-first position rather than on top.
func (f *NotificationFeed) insertLocked(n models.Notification) bool {
	if f.indexLocked(n.ID) >= 0 {
		return false
	}
	if len(f.items) == 0 || !n.CreatedAt.Before(f.items[0].CreatedAt) {
		f.items = append([]models.Notification{n}, f.items...)
		return true
	}

	f.logger.Debug("out-of-order notification insert",
		zap.String("notification_id", n.ID), zap.Time("created_at", n.CreatedAt))
	idx := sort.Search(len(f.items), func(i int) bool {
		return !f.items[i].CreatedAt.After(n.CreatedAt)
	})
	f.items = slices.Insert(f.items, idx, n)
	return true
}

func (f *NotificationFeed) indexLocked(id string) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}

// claimReadLocked records a new write as the owner of id's read flag
func (f *NotificationFeed) claimReadLocked(id string) uint64 {
	if f.readWrites == nil {
		f.readWrites = make(map[string]uint64)
	}
	f.writeSeq++
	f.readWrites[id] = f.writeSeq
	return f.writeSeq
}

// releaseReadLocked reports whether seq still owns id's read flag and drops the claim if so
func (f *NotificationFeed) releaseReadLocked(id string, seq uint64) bool {
	if f.readWrites[id] != seq {
		return false
	}
	delete(f.readWrites, id)
	return true
}

func (f *NotificationFeed) teardownLocked() {
	if f.sub != nil {
		if err := f.sub.Close(); err != nil {
			f.logger.Warn("failed to close notification subscription", zap.Error(err))
		}
		f.sub = nil
	}
	f.pending = nil
}

// MarkRead marks one notification read. Unknown ids are ignored.
func (f *NotificationFeed) MarkRead(ctx context.Context, id string) {
	f.mu.Lock()
	idx := f.indexLocked(id)
	if idx < 0 {
		f.mu.Unlock()
		return
	}
	prev := f.items[idx].IsRead
	f.items[idx].IsRead = true
	seq := f.claimReadLocked(id)
	userID, gen := f.userID, f.generation
	f.mu.Unlock()
	if !prev {
		f.notify()
	}

	writeCtx, cancel := context.WithTimeout(ctx, f.timeout)
	err := f.store.MarkNotificationRead(writeCtx, userID, id)
	cancel()

	f.mu.Lock()
	owned := gen == f.generation && f.releaseReadLocked(id, seq)
	if err == nil {
		f.mu.Unlock()
		return
	}
	f.logger.Error("failed to mark notification read", zap.String("notification_id", id), zap.Error(err))
	// a later write has settled the flag since
	if !owned {
		f.mu.Unlock()
		return
	}
	if i := f.indexLocked(id); i >= 0 {
		f.items[i].IsRead = prev
	}
	f.mu.Unlock()
	f.notify()
}

// MarkAllRead marks every notification of the current user read
func (f *NotificationFeed) MarkAllRead(ctx context.Context) {
	f.mu.Lock()
	if f.userID == "" {
		f.mu.Unlock()
		return
	}
	userID, gen := f.userID, f.generation
	seqs := make(map[string]uint64, len(f.items))
	var flipped []string
	for i := range f.items {
		seqs[f.items[i].ID] = f.claimReadLocked(f.items[i].ID)
		if !f.items[i].IsRead {
			f.items[i].IsRead = true
			flipped = append(flipped, f.items[i].ID)
		}
	}
	f.mu.Unlock()
	if len(flipped) > 0 {
		f.notify()
	}

	writeCtx, cancel := context.WithTimeout(ctx, f.timeout)
	err := f.store.MarkAllNotificationsRead(writeCtx, userID)
	cancel()

	f.mu.Lock()
	stale := gen != f.generation
	owned := make(map[string]bool, len(seqs))
	if !stale {
		for id, seq := range seqs {
			owned[id] = f.releaseReadLocked(id, seq)
		}
	}
	if err == nil {
		f.mu.Unlock()
		return
	}
	f.logger.Error("failed to mark all notifications read", zap.String("user_id", userID), zap.Error(err))
	if stale {
		f.mu.Unlock()
		return
	}
	for _, id := range flipped {
		if !owned[id] {
			continue
		}
		if i := f.indexLocked(id); i >= 0 {
			f.items[i].IsRead = false
		}
	}
	f.mu.Unlock()
	f.notify()
}

// Delete removes a notification, keeping the order of the others
func (f *NotificationFeed) Delete(ctx context.Context, id string) {
	f.mu.Lock()
	idx := f.indexLocked(id)
	if idx < 0 {
		f.mu.Unlock()
		return
	}
	removed := f.items[idx]
	f.items = slices.Delete(f.items, idx, idx+1)
	userID, gen := f.userID, f.generation
	f.mu.Unlock()
	f.notify()

	writeCtx, cancel := context.WithTimeout(ctx, f.timeout)
	err := f.store.DeleteNotification(writeCtx, userID, id)
	cancel()
	if err == nil {
		return
	}

	f.logger.Error("failed to delete notification", zap.String("notification_id", id), zap.Error(err))
	f.mu.Lock()
	if gen == f.generation && f.indexLocked(id) < 0 {
		// live inserts may have shifted the list since the delete
		at := sort.Search(len(f.items), func(i int) bool {
			return !f.items[i].CreatedAt.After(removed.CreatedAt)
		})
		f.items = slices.Insert(f.items, at, removed)
	}
	f.mu.Unlock()
	f.notify()
}

// Select marks the notification read and opens the record it refers to, if any
func (f *NotificationFeed) Select(ctx context.Context, n models.Notification) {
	f.MarkRead(ctx, n.ID)
	if route, ok := RouteForNotification(n); ok {
		f.navigator.Navigate(route)
	}
}

// Notifications returns a copy of the local list, newest first
func (f *NotificationFeed) Notifications() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// UnreadCount counts local notifications not yet read
func (f *NotificationFeed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for i := range f.items {
		if !f.items[i].IsRead {
			count++
		}
	}
	return count
}

// Loading is true while the initial fetch for the current user is outstanding
func (f *NotificationFeed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *NotificationFeed) UserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

// Close tears down the live subscription; the feed ignores further calls to SetUser
func (f *NotificationFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
	f.teardownLocked()
}

func (f *NotificationFeed) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}
