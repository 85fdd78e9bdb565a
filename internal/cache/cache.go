package cache

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCapacity = 512

// Status tracks the freshness of a cached record.
type Status int

const (
	StatusFresh Status = iota
	StatusStale
	StatusRefetching
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStale:
		return "stale"
	case StatusRefetching:
		return "refetching"
	case StatusError:
		return "error"
	default:
		return "fresh"
	}
}

// Record wraps a cached payload with its freshness metadata. Payloads
// are treated as immutable: writers replace them, never mutate in place.
type Record struct {
	Payload   any
	FetchedAt time.Time
	Status    Status
}

// Subscriber receives the record written to a key. Invoked synchronously
// before the write call returns, so a subscriber may read back any key.
type Subscriber func(key Key, rec Record)

type subscription struct {
	id int
	fn Subscriber
}

// Store is the keyed in-memory entity cache. All mutation flows through
// the mutation coordinator or a confirmed refetch; views only read and
// subscribe. Records nothing subscribes to are evicted least-recently-used
// once capacity is reached.
type Store struct {
	mu      sync.Mutex
	records map[string]Record
	keys    map[string]Key // original Key per rendered string, for notifications
	subs    map[string][]subscription
	nextSub int
	recency *lru.Cache[string, struct{}] // unpinned keys, oldest evicted first
	logger  *slog.Logger
}

// New creates a Store holding at most capacity unsubscribed records.
func New(capacity int, logger *slog.Logger) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		records: make(map[string]Record),
		keys:    make(map[string]Key),
		subs:    make(map[string][]subscription),
		logger:  logger,
	}

	// The evict callback runs while s.mu is held (recency is only
	// touched under the lock), so it must not re-lock.
	s.recency, _ = lru.NewWithEvict(capacity, func(key string, _ struct{}) {
		delete(s.records, key)
		delete(s.keys, key)
	})
	return s
}

// Get returns the record stored at key. The boolean is false when the
// key is absent; Get never panics and never blocks on the network.
func (s *Store) Get(key Key) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks := key.String()
	rec, ok := s.records[ks]
	if ok {
		s.recency.Get(ks) // bump recency if unpinned
	}
	return rec, ok
}

// Set replaces the record at key, bumps its freshness timestamp, and
// synchronously notifies subscribers of the key and of its collection
// before returning.
func (s *Store) Set(key Key, payload any, status Status) {
	s.mu.Lock()
	ks := key.String()
	rec := Record{Payload: payload, FetchedAt: time.Now(), Status: status}
	s.records[ks] = rec
	s.keys[ks] = key
	if !s.pinned(ks) {
		s.recency.Add(ks, struct{}{})
	}
	targets := s.collectSubscribers(key)
	s.mu.Unlock()

	for _, fn := range targets {
		fn(key, rec)
	}
}

// SetStatus updates only the status of an existing record, preserving
// payload and timestamp. No-op when the key is absent.
func (s *Store) SetStatus(key Key, status Status) {
	s.mu.Lock()
	ks := key.String()
	rec, ok := s.records[ks]
	if !ok {
		s.mu.Unlock()
		return
	}
	rec.Status = status
	s.records[ks] = rec
	targets := s.collectSubscribers(key)
	s.mu.Unlock()

	for _, fn := range targets {
		fn(key, rec)
	}
}

// Remove deletes the record at key. Subscribers receive a zero Record.
// Used by the mutation coordinator to roll back a transform that created
// the record.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	ks := key.String()
	if _, ok := s.records[ks]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.records, ks)
	delete(s.keys, ks)
	s.recency.Remove(ks)
	targets := s.collectSubscribers(key)
	s.mu.Unlock()

	for _, fn := range targets {
		fn(key, Record{})
	}
}

// Subscribe registers fn for writes to key. Subscribing to a bare
// collection key (no id, no params) also receives writes to every key
// within that collection. Returns an unsubscribe func. Directly
// subscribed records are pinned against LRU eviction.
func (s *Store) Subscribe(key Key, fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks := key.String()
	s.nextSub++
	id := s.nextSub
	s.subs[ks] = append(s.subs[ks], subscription{id: id, fn: fn})
	s.recency.Remove(ks) // pin

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		entries := s.subs[ks]
		for i, e := range entries {
			if e.id == id {
				s.subs[ks] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(s.subs[ks]) == 0 {
			delete(s.subs, ks)
			if _, ok := s.records[ks]; ok {
				s.recency.Add(ks, struct{}{}) // unpin, back under LRU policy
			}
		}
	}
}

// Invalidate marks every record whose rendered key starts with prefix as
// stale. Payloads are kept so views don't flash empty; subscribers are
// notified so they can trigger refetches.
func (s *Store) Invalidate(prefix string) {
	type pending struct {
		key Key
		rec Record
		fns []Subscriber
	}

	s.mu.Lock()
	var hits []pending
	for ks, rec := range s.records {
		if !strings.HasPrefix(ks, prefix) || rec.Status == StatusStale {
			continue
		}
		rec.Status = StatusStale
		s.records[ks] = rec
		key := s.keys[ks]
		hits = append(hits, pending{key: key, rec: rec, fns: s.collectSubscribers(key)})
	}
	s.mu.Unlock()

	if len(hits) > 0 {
		s.logger.Debug("invalidated cache", "prefix", prefix, "count", len(hits))
	}
	for _, h := range hits {
		for _, fn := range h.fns {
			fn(h.key, h.rec)
		}
	}
}

// InvalidateKey marks a single record stale.
func (s *Store) InvalidateKey(key Key) {
	s.Invalidate(key.String())
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// pinned reports whether the key has direct subscribers. Caller holds s.mu.
func (s *Store) pinned(ks string) bool {
	return len(s.subs[ks]) > 0
}

// collectSubscribers gathers callbacks for a key and its collection.
// Caller holds s.mu; callbacks are invoked after release.
func (s *Store) collectSubscribers(key Key) []Subscriber {
	var fns []Subscriber
	ks := key.String()
	for _, e := range s.subs[ks] {
		fns = append(fns, e.fn)
	}
	if ks != key.Collection {
		for _, e := range s.subs[key.Collection] {
			fns = append(fns, e.fn)
		}
	}
	return fns
}
