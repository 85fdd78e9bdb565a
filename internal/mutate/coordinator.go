package mutate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
)

// Transform produces the optimistic payload from the current one. It
// must be pure: the coordinator snapshots the input for rollback, so
// transforms return a new payload rather than mutating in place. The
// input is nil when the key is absent.
type Transform func(payload any) any

// RemoteCall performs the backing server call. A non-nil returned
// payload is authoritative and overwrites the optimistic one; nil means
// the optimistic state stands.
type RemoteCall func(ctx context.Context) (any, error)

// Outcome is the settled result of a mutation. Exactly one of Confirmed
// or Failure is set; the cache already reflects Record when Mutate
// returns. The coordinator never panics or returns a raw error across
// this boundary.
type Outcome struct {
	ID        string // Correlation id, also present in log lines
	Key       cache.Key
	Confirmed bool
	Failure   *domain.Failure
	Record    cache.Record
}

// Coordinator serializes optimistic mutations per cache key.
//
// For a given key at most one mutation is in flight; later calls queue
// and their transforms run against the settled result of the
// predecessor, never against a stale snapshot. Across keys nothing is
// ordered. A caller going away does not cancel the remote call: other
// views may be observing the same key, so every mutation runs to
// reconciliation.
type Coordinator struct {
	store  *cache.Store
	logger *slog.Logger

	mu    sync.Mutex
	tails map[string]chan struct{}
}

// New creates a Coordinator writing through the given store.
func New(store *cache.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:  store,
		logger: logger,
		tails:  make(map[string]chan struct{}),
	}
}

// Mutate applies transform to the cache, fires remote, and settles the
// record: confirmed fresh on success, rolled back to the exact
// pre-transform snapshot on failure. Blocks until settled.
func (c *Coordinator) Mutate(ctx context.Context, key cache.Key, transform Transform, remote RemoteCall) Outcome {
	id := uuid.NewString()
	release := c.enqueue(key)
	defer release()

	snapshot, existed := c.store.Get(key)

	var base any
	if existed {
		base = snapshot.Payload
	}
	c.store.Set(key, transform(base), cache.StatusRefetching)
	c.logger.Debug("optimistic write applied", "mutation", id, "key", key.String())

	// Detached from the caller's lifetime: an unmounting view must not
	// abort reconciliation for everyone else.
	payload, err := remote(context.WithoutCancel(ctx))
	if err != nil {
		return c.rollback(id, key, snapshot, existed, err)
	}

	if payload != nil {
		c.store.Set(key, payload, cache.StatusFresh)
	} else {
		c.store.SetStatus(key, cache.StatusFresh)
	}
	rec, _ := c.store.Get(key)
	c.logger.Debug("mutation confirmed", "mutation", id, "key", key.String(), "authoritative", payload != nil)
	return Outcome{ID: id, Key: key, Confirmed: true, Record: rec}
}

// Apply performs a local confirmed write under the same per-key
// ordering as Mutate, with no remote call. Used to reconcile derived
// collections (membership lists, counters embedded in feeds) right
// after a confirmed mutation of the underlying record; semantically it
// is the tail end of that confirmation, not a new optimistic state.
func (c *Coordinator) Apply(key cache.Key, transform Transform) cache.Record {
	release := c.enqueue(key)
	defer release()

	var base any
	if rec, ok := c.store.Get(key); ok {
		base = rec.Payload
	}
	c.store.Set(key, transform(base), cache.StatusFresh)
	rec, _ := c.store.Get(key)
	return rec
}

func (c *Coordinator) rollback(id string, key cache.Key, snapshot cache.Record, existed bool, err error) Outcome {
	failure := domain.AsFailure(err)

	if existed {
		// Fresh, not error: the underlying data never changed.
		c.store.Set(key, snapshot.Payload, cache.StatusFresh)
	} else {
		c.store.Remove(key)
	}

	if failure.Kind == domain.FailureConflict {
		// Server state diverged; force observers to refetch.
		c.store.InvalidateKey(key)
	}

	rec, _ := c.store.Get(key)
	c.logger.Warn("mutation rolled back",
		"mutation", id, "key", key.String(), "kind", failure.Kind.String(), "error", failure.Err)
	return Outcome{ID: id, Key: key, Failure: failure, Record: rec}
}

// enqueue takes this mutation's place in the key's FIFO and blocks until
// every earlier mutation on the key has settled. The returned release
// must be deferred.
func (c *Coordinator) enqueue(key cache.Key) func() {
	ks := key.String()
	done := make(chan struct{})

	c.mu.Lock()
	prev := c.tails[ks]
	c.tails[ks] = done
	c.mu.Unlock()

	if prev != nil {
		<-prev
	}

	return func() {
		close(done)
		c.mu.Lock()
		if c.tails[ks] == done {
			delete(c.tails, ks)
		}
		c.mu.Unlock()
	}
}
