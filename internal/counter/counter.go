package counter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lwgren/loppis/internal/domain"
)

// DefaultPollInterval is how often the badges are reconciled with the
// server when nothing else triggers a refresh.
const DefaultPollInterval = 30 * time.Second

// Synchronizer is the sole owner of the unseen-activity and unread-chat
// counters. Badge views subscribe; nothing else writes. Local decrements
// are optimistic and the next server refresh is authoritative.
type Synchronizer struct {
	client domain.CounterClient
	logger *slog.Logger

	mu     sync.Mutex
	counts domain.Counts
	subs   map[int]func(domain.Counts)
	nextID int
}

// New creates a Synchronizer with both counters at zero.
func New(client domain.CounterClient, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		client: client,
		logger: logger,
		subs:   make(map[int]func(domain.Counts)),
	}
}

// Counts returns the current counter values.
func (s *Synchronizer) Counts() domain.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Subscribe registers fn for counter changes and invokes it once with
// the current values. Returns an unsubscribe func.
func (s *Synchronizer) Subscribe(fn func(domain.Counts)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	current := s.counts
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetFromServer overwrites both counters with authoritative values.
func (s *Synchronizer) SetFromServer(counts domain.Counts) {
	s.publish(func(c domain.Counts) domain.Counts {
		return counts
	})
}

// DecrementUnseen optimistically lowers the unseen-activity counter by n,
// clamped at zero. Used when individual activities are marked read ahead
// of server confirmation.
func (s *Synchronizer) DecrementUnseen(n int) {
	s.publish(func(c domain.Counts) domain.Counts {
		c.UnseenActivities -= n
		if c.UnseenActivities < 0 {
			c.UnseenActivities = 0
		}
		return c
	})
}

// ResetUnseen zeroes the unseen-activity counter. Used when the activity
// screen gains focus; callers should follow with a background Refresh.
func (s *Synchronizer) ResetUnseen() {
	s.publish(func(c domain.Counts) domain.Counts {
		c.UnseenActivities = 0
		return c
	})
}

// DecrementUnreadChats optimistically lowers the unread-chat counter.
func (s *Synchronizer) DecrementUnreadChats(n int) {
	s.publish(func(c domain.Counts) domain.Counts {
		c.UnreadChats -= n
		if c.UnreadChats < 0 {
			c.UnreadChats = 0
		}
		return c
	})
}

// Refresh fetches both counters from the server and overwrites local
// state. The two endpoints are independent, so they are fetched
// concurrently.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	var unseen, unread int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.client.GetUnseenActivityCount(ctx)
		if err != nil {
			return err
		}
		unseen = n
		return nil
	})
	g.Go(func() error {
		n, err := s.client.GetUnreadChatCount(ctx)
		if err != nil {
			return err
		}
		unread = n
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("counter refresh failed", "error", err)
		return err
	}

	s.SetFromServer(domain.Counts{UnseenActivities: unseen, UnreadChats: unread})
	return nil
}

// Run polls the server on interval until ctx is done. Errors are logged
// and the loop keeps going; a marketplace badge being briefly stale is
// not worth surfacing.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// publish applies fn to the counts under the lock, then notifies
// subscribers outside it. Subscribers only fire when something changed.
func (s *Synchronizer) publish(fn func(domain.Counts) domain.Counts) {
	s.mu.Lock()
	next := fn(s.counts)
	if next == s.counts {
		s.mu.Unlock()
		return
	}
	s.counts = next
	fns := make([]func(domain.Counts), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.mu.Unlock()

	for _, f := range fns {
		f(next)
	}
}
