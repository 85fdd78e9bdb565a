package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
)

// Observer bridges cache and counter subscriptions into Bubble Tea
// messages through channels. Subscription callbacks fire on whatever
// goroutine performed the write, so they only enqueue.
type Observer struct {
	counts chan domain.Counts
	events chan CacheEventMsg
}

// NewObserver creates an Observer with buffered channels.
func NewObserver() *Observer {
	return &Observer{
		counts: make(chan domain.Counts, 8),
		events: make(chan CacheEventMsg, 64),
	}
}

// WatchCounters subscribes to badge counter changes.
func (o *Observer) WatchCounters(counters *counter.Synchronizer) func() {
	return counters.Subscribe(func(c domain.Counts) {
		select {
		case o.counts <- c:
		default: // Non-blocking if channel full
		}
	})
}

// WatchCollection subscribes to every write within a cache collection.
func (o *Observer) WatchCollection(store *cache.Store, collection string) func() {
	return store.Subscribe(cache.NewKey(collection), func(key cache.Key, rec cache.Record) {
		select {
		case o.events <- CacheEventMsg{Key: key, Record: rec}:
		default:
		}
	})
}

// WaitForCounts returns a command that delivers the next counter update.
func (o *Observer) WaitForCounts() tea.Cmd {
	return func() tea.Msg {
		return CountsMsg{Counts: <-o.counts}
	}
}

// WaitForCacheEvent returns a command that delivers the next cache write.
func (o *Observer) WaitForCacheEvent() tea.Cmd {
	return func() tea.Msg {
		return <-o.events
	}
}
