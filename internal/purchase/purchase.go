package purchase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

// Action is one of the user-facing moves on a purchase request.
type Action int

const (
	ActionAccept Action = iota
	ActionDecline
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionDecline:
		return "decline"
	case ActionCancel:
		return "cancel"
	default:
		return "accept"
	}
}

// target maps each action to the terminal state it produces. Every
// action is valid only from pending; pending is never re-entered
// without a fresh request from a buyer.
func (a Action) target() domain.RequestState {
	switch a {
	case ActionDecline:
		return domain.RequestDeclined
	case ActionCancel:
		return domain.RequestCancelled
	default:
		return domain.RequestAccepted
	}
}

// ErrNotAllowed is returned when the acting user lacks the role for the
// action (only the seller accepts or declines, only the requester
// cancels). Rejected locally, nothing reaches the server.
var ErrNotAllowed = errors.New("action not allowed for this user")

// Service drives the purchase-request lifecycle against the cache and
// the backend.
type Service struct {
	client domain.TradeClient
	store  *cache.Store
	coord  *mutate.Coordinator
	logger *slog.Logger
}

// NewService creates a purchase Service.
func NewService(client domain.TradeClient, store *cache.Store, coord *mutate.Coordinator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, coord: coord, logger: logger}
}

// ValidActions returns the actions userID may take on the product's
// request in its current state. Empty unless the request is pending.
func ValidActions(p *domain.Product, userID string) []Action {
	if p.RequestState() != domain.RequestPending {
		return nil
	}
	if p.IsSeller(userID) {
		return []Action{ActionAccept, ActionDecline}
	}
	if p.IsRequester(userID) {
		return []Action{ActionCancel}
	}
	return nil
}

// Accept resolves the pending request in the buyer's favor. Seller only.
func (s *Service) Accept(ctx context.Context, productID, actorID string) error {
	return s.resolve(ctx, productID, actorID, ActionAccept)
}

// Decline resolves the pending request against the buyer. Seller only.
func (s *Service) Decline(ctx context.Context, productID, actorID string) error {
	return s.resolve(ctx, productID, actorID, ActionDecline)
}

// Cancel withdraws the pending request. Requester only.
func (s *Service) Cancel(ctx context.Context, productID, actorID string) error {
	return s.resolve(ctx, productID, actorID, ActionCancel)
}

// resolve performs the shared gate-mutate-reconcile flow.
//
// The cached sub-state is re-read immediately before acting: if it is no
// longer pending (resolved from another device, expired) the action is
// rejected locally with ErrStateChanged instead of burning a server
// round trip on a stale read. Remote failure leaves the state at
// pending via coordinator rollback.
func (s *Service) resolve(ctx context.Context, productID, actorID string, action Action) error {
	key := cache.ProductKey(productID)

	rec, ok := s.store.Get(key)
	if !ok {
		// Nothing cached to validate against; force a refetch.
		s.store.InvalidateKey(key)
		return domain.ErrStateChanged
	}
	product, ok := rec.Payload.(*domain.Product)
	if !ok || product.RequestState() != domain.RequestPending {
		s.logger.Info("purchase action rejected, state not pending",
			"product", productID, "action", action.String(), "state", product.RequestState().String())
		s.store.InvalidateKey(key)
		return domain.ErrStateChanged
	}

	if !s.allowed(product, actorID, action) {
		return ErrNotAllowed
	}

	outcome := s.coord.Mutate(ctx, key,
		func(payload any) any {
			p, _ := payload.(*domain.Product)
			return withRequestState(p, action.target())
		},
		func(ctx context.Context) (any, error) {
			return nil, s.remoteCall(ctx, productID, action)
		},
	)

	if outcome.Failure != nil {
		// Rolled back to pending; conflict additionally marked the
		// record stale so observers refetch the real state.
		return outcome.Failure
	}

	// Confirmed. The product record and the feed entries tied to this
	// request are now authoritative-stale: the server may have attached
	// a review prompt or rewritten the activity grouping.
	s.store.InvalidateKey(key)
	s.store.Invalidate(cache.CollectionActivities)
	s.logger.Info("purchase request resolved",
		"product", productID, "action", action.String(), "mutation", outcome.ID)
	return nil
}

func (s *Service) allowed(p *domain.Product, actorID string, action Action) bool {
	switch action {
	case ActionCancel:
		return p.IsRequester(actorID)
	default:
		return p.IsSeller(actorID)
	}
}

func (s *Service) remoteCall(ctx context.Context, productID string, action Action) error {
	switch action {
	case ActionDecline:
		return s.client.DeclinePurchaseRequest(ctx, productID)
	case ActionCancel:
		return s.client.CancelPurchaseRequest(ctx, productID)
	default:
		return s.client.AcceptPurchaseRequest(ctx, productID)
	}
}

// withRequestState returns a copy of p whose request carries the given
// terminal state. Payloads are immutable by cache contract.
func withRequestState(p *domain.Product, state domain.RequestState) *domain.Product {
	if p == nil {
		return nil
	}
	next := *p
	if p.Request != nil {
		req := *p.Request
		req.State = state
		next.Request = &req
	}
	if state == domain.RequestAccepted {
		next.Sold = true
	}
	return &next
}
