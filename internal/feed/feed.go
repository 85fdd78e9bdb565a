package feed

import (
	"context"
	"log/slog"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

const defaultPageSize = 20

// maxPages bounds a full refresh; the feed beyond this is reachable by
// explicit paging in the view.
const maxPages = 10

// NavKind classifies where selecting an activity should lead.
type NavKind int

const (
	NavProduct NavKind = iota
	NavProfile
	NavChat
	NavInfo
)

// Navigation is the result of resolving an activity press.
type Navigation struct {
	Kind      NavKind
	ProductID string
	UserID    string
	Message   string // Set for NavInfo
}

// Service orchestrates the activity feed: fetching into the cache,
// read-marking through the coordinator, and press resolution.
type Service struct {
	client   domain.SocialClient
	store    *cache.Store
	coord    *mutate.Coordinator
	counters *counter.Synchronizer
	logger   *slog.Logger
	pageSize int
}

// NewService creates a feed Service.
func NewService(client domain.SocialClient, store *cache.Store, coord *mutate.Coordinator, counters *counter.Synchronizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		store:    store,
		coord:    coord,
		counters: counters,
		logger:   logger,
		pageSize: defaultPageSize,
	}
}

// Refresh fetches the feed from the server and replaces the cached
// list. The server copy is authoritative: a read flag it reports wins
// over any local state, which is the one sanctioned way a read
// activity can reappear unread.
func (s *Service) Refresh(ctx context.Context) ([]*domain.Activity, error) {
	activities, err := fetchAll(ctx, func(ctx context.Context, page, limit int) (domain.Page[*domain.Activity], error) {
		return s.client.GetActivities(ctx, page, limit)
	}, s.pageSize)
	if err != nil {
		s.logger.Error("failed to fetch activities", "error", err)
		s.store.SetStatus(cache.ActivitiesKey(), cache.StatusError)
		return nil, err
	}

	s.store.Set(cache.ActivitiesKey(), activities, cache.StatusFresh)
	s.logger.Debug("refreshed activity feed", "count", len(activities))
	return activities, nil
}

// Cached returns the cached feed without touching the network.
func (s *Service) Cached() ([]*domain.Activity, bool) {
	rec, ok := s.store.Get(cache.ActivitiesKey())
	if !ok {
		return nil, false
	}
	activities, ok := rec.Payload.([]*domain.Activity)
	return activities, ok
}

// MarkRead marks one activity read: optimistic flip in the cache, badge
// decrement, then the server call. Already-read activities are a no-op.
// On failure the flip is rolled back; the badge is left for the next
// poll to reconcile.
func (s *Service) MarkRead(ctx context.Context, activityID string) error {
	if a, ok := s.cachedActivity(activityID); !ok || a.Read {
		return nil
	}

	s.counters.DecrementUnseen(1)
	outcome := s.coord.Mutate(ctx, cache.ActivitiesKey(),
		MarkReadTransform(activityID),
		func(ctx context.Context) (any, error) {
			return nil, s.client.MarkActivityRead(ctx, activityID)
		},
	)
	if outcome.Failure != nil {
		return outcome.Failure
	}
	return nil
}

// MarkAllRead marks every activity read and zeroes the unseen badge.
func (s *Service) MarkAllRead(ctx context.Context) error {
	s.counters.ResetUnseen()
	outcome := s.coord.Mutate(ctx, cache.ActivitiesKey(),
		func(payload any) any {
			activities, _ := payload.([]*domain.Activity)
			next := make([]*domain.Activity, len(activities))
			for i, a := range activities {
				c := *a
				c.Read = true
				next[i] = &c
			}
			return next
		},
		func(ctx context.Context) (any, error) {
			return nil, s.client.MarkAllActivitiesRead(ctx)
		},
	)
	if outcome.Failure != nil {
		return outcome.Failure
	}
	return nil
}

// Resolve maps an activity press to a navigation target. Activities
// whose product was deleted server-side degrade to an informational
// message instead of navigating into a missing listing.
func (s *Service) Resolve(a *domain.Activity) Navigation {
	switch a.Type {
	case domain.ActivityChat:
		return Navigation{Kind: NavChat, UserID: a.LeadSender().ID}
	case domain.ActivityUserLike, domain.ActivityFollow, domain.ActivityReviewReceived:
		return Navigation{Kind: NavProfile, UserID: a.LeadSender().ID}
	default:
		if a.Product == nil {
			return Navigation{Kind: NavInfo, Message: "This listing is no longer available."}
		}
		return Navigation{Kind: NavProduct, ProductID: a.Product.ID}
	}
}

// ReconcileRequestState rewrites the purchase-request sub-state on every
// cached activity referencing productID. Called after the purchase
// service settles a transition, so the feed's action buttons match the
// product record without waiting for a refetch.
func (s *Service) ReconcileRequestState(productID string, state domain.RequestState) {
	s.coord.Apply(cache.ActivitiesKey(), func(payload any) any {
		activities, _ := payload.([]*domain.Activity)
		next := make([]*domain.Activity, len(activities))
		for i, a := range activities {
			if a.Product == nil || a.Product.ID != productID || a.Product.Request == nil {
				next[i] = a
				continue
			}
			c := *a
			p := *a.Product
			req := *a.Product.Request
			req.State = state
			p.Request = &req
			c.Product = &p
			next[i] = &c
		}
		return next
	})
}

// MarkReadTransform returns the cache transform flipping one activity to
// read. Exported for the review gate, which performs the same flip as
// part of a submission.
func MarkReadTransform(activityID string) mutate.Transform {
	return func(payload any) any {
		activities, _ := payload.([]*domain.Activity)
		next := make([]*domain.Activity, len(activities))
		for i, a := range activities {
			if a.ID != activityID {
				next[i] = a
				continue
			}
			c := *a
			c.Read = true
			next[i] = &c
		}
		return next
	}
}

func (s *Service) cachedActivity(activityID string) (*domain.Activity, bool) {
	activities, ok := s.Cached()
	if !ok {
		return nil, false
	}
	for _, a := range activities {
		if a.ID == activityID {
			return a, true
		}
	}
	return nil, false
}

// fetchAll is a generic pagination helper: fetch pages until the server
// reports no more, with a hard cap.
func fetchAll[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page, limit int) (domain.Page[T], error),
	limit int,
) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch, err := fetch(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, batch.Items...)

		if !batch.HasMore() || len(batch.Items) == 0 {
			break
		}
	}
	return all, nil
}
