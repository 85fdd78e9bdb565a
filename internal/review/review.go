package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/feed"
	"github.com/lwgren/loppis/internal/mutate"
)

// ErrAlreadyReviewed is returned when the gate is closed for the
// activity: it was already read by the review flow, or a review for the
// (reviewer, product) pair was already recorded this session.
var ErrAlreadyReviewed = errors.New("review already submitted")

// Gate prevents duplicate review submission for resolved purchase
// requests. Once a review goes through, the prompt activity is marked
// read and the gate stays closed without a server round trip; the next
// authoritative feed refetch carries the same answer.
type Gate struct {
	client   domain.TradeClient
	store    *cache.Store
	coord    *mutate.Coordinator
	counters *counter.Synchronizer
	logger   *slog.Logger

	mu        sync.Mutex
	submitted map[string]struct{} // reviewerID|productID
}

// NewGate creates a review Gate.
func NewGate(client domain.TradeClient, store *cache.Store, coord *mutate.Coordinator, counters *counter.Synchronizer, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		client:    client,
		store:     store,
		coord:     coord,
		counters:  counters,
		logger:    logger,
		submitted: make(map[string]struct{}),
	}
}

// CanReview reports whether the review flow may open for the activity:
// it must be a review prompt, unread, reference a live product, and the
// (reviewer, product) pair must not have been reviewed this session.
func (g *Gate) CanReview(a *domain.Activity, reviewerID string) bool {
	if a == nil || a.Type != domain.ActivityReviewPrompt || a.Read {
		return false
	}
	if a.Product == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	_, done := g.submitted[pairKey(reviewerID, a.Product.ID)]
	return !done
}

// Submit records the review. The gate closes and the prompt activity is
// flipped to read before the server call; failure reopens both.
func (g *Gate) Submit(ctx context.Context, a *domain.Activity, reviewerID string, input domain.ReviewInput) error {
	if !g.CanReview(a, reviewerID) {
		return ErrAlreadyReviewed
	}

	pair := pairKey(reviewerID, input.ProductID)
	g.mu.Lock()
	g.submitted[pair] = struct{}{}
	g.mu.Unlock()

	g.counters.DecrementUnseen(1)
	outcome := g.coord.Mutate(ctx, cache.ActivitiesKey(),
		feed.MarkReadTransform(a.ID),
		func(ctx context.Context) (any, error) {
			return nil, g.client.CreateReview(ctx, input)
		},
	)

	if outcome.Failure != nil {
		g.mu.Lock()
		delete(g.submitted, pair)
		g.mu.Unlock()
		return outcome.Failure
	}

	g.logger.Info("review submitted",
		"product", input.ProductID, "reviewee", input.RevieweeID, "mutation", outcome.ID)
	return nil
}

func pairKey(reviewerID, productID string) string {
	return reviewerID + "|" + productID
}
