package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

type fakeTradeClient struct {
	acceptErr  error
	declineErr error
	cancelErr  error
	accepts    int
	declines   int
	cancels    int
}

func (f *fakeTradeClient) AcceptPurchaseRequest(context.Context, string) error {
	f.accepts++
	return f.acceptErr
}

func (f *fakeTradeClient) DeclinePurchaseRequest(context.Context, string) error {
	f.declines++
	return f.declineErr
}

func (f *fakeTradeClient) CancelPurchaseRequest(context.Context, string) error {
	f.cancels++
	return f.cancelErr
}

func (f *fakeTradeClient) CreateReview(context.Context, domain.ReviewInput) error {
	return nil
}

func pendingProduct() *domain.Product {
	return &domain.Product{
		ID:       "p1",
		Title:    "Dresser",
		SellerID: "seller",
		Request:  &domain.PurchaseRequest{BuyerID: "buyer", State: domain.RequestPending},
	}
}

func newService(client *fakeTradeClient) (*Service, *cache.Store) {
	store := cache.New(0, nil)
	coord := mutate.New(store, nil)
	return NewService(client, store, coord, nil), store
}

func TestAcceptTransitionsToAccepted(t *testing.T) {
	client := &fakeTradeClient{}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), pendingProduct(), cache.StatusFresh)

	require.NoError(t, svc.Accept(context.Background(), "p1", "seller"))
	require.Equal(t, 1, client.accepts)

	rec, _ := store.Get(cache.ProductKey("p1"))
	p := rec.Payload.(*domain.Product)
	require.Equal(t, domain.RequestAccepted, p.RequestState())
	require.True(t, p.Sold)
	// Confirmed then invalidated so observers refetch authoritative data.
	require.Equal(t, cache.StatusStale, rec.Status)
}

func TestAcceptRejectedForNonSeller(t *testing.T) {
	client := &fakeTradeClient{}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), pendingProduct(), cache.StatusFresh)

	err := svc.Accept(context.Background(), "p1", "buyer")
	require.ErrorIs(t, err, ErrNotAllowed)
	require.Zero(t, client.accepts)
}

func TestCancelOnlyForRequester(t *testing.T) {
	client := &fakeTradeClient{}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), pendingProduct(), cache.StatusFresh)

	require.ErrorIs(t, svc.Cancel(context.Background(), "p1", "seller"), ErrNotAllowed)
	require.NoError(t, svc.Cancel(context.Background(), "p1", "buyer"))
	require.Equal(t, 1, client.cancels)
}

// Acting on a request someone already resolved must be rejected locally
// with a distinguishable outcome, without a server round trip.
func TestStaleStateRejectedLocally(t *testing.T) {
	client := &fakeTradeClient{}
	svc, store := newService(client)
	p := pendingProduct()
	p.Request.State = domain.RequestDeclined
	store.Set(cache.ProductKey("p1"), p, cache.StatusFresh)

	err := svc.Accept(context.Background(), "p1", "seller")
	require.ErrorIs(t, err, domain.ErrStateChanged)
	require.Zero(t, client.accepts)

	// The stale record is flagged for refetch.
	rec, _ := store.Get(cache.ProductKey("p1"))
	require.Equal(t, cache.StatusStale, rec.Status)
}

func TestUncachedProductRejectedLocally(t *testing.T) {
	client := &fakeTradeClient{}
	svc, _ := newService(client)

	err := svc.Decline(context.Background(), "missing", "seller")
	require.ErrorIs(t, err, domain.ErrStateChanged)
	require.Zero(t, client.declines)
}

// Server-side race: the request was declined from another device after
// our last fetch. The 409 rolls the optimistic accept back to pending.
func TestServerConflictRollsBackToPending(t *testing.T) {
	client := &fakeTradeClient{
		acceptErr: domain.StatusFailure(409, "already_resolved", errors.New("request already declined")),
	}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), pendingProduct(), cache.StatusFresh)

	err := svc.Accept(context.Background(), "p1", "seller")

	var failure *domain.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, domain.FailureConflict, failure.Kind)

	rec, _ := store.Get(cache.ProductKey("p1"))
	p := rec.Payload.(*domain.Product)
	require.Equal(t, domain.RequestPending, p.RequestState())
	require.Equal(t, cache.StatusStale, rec.Status)
}

func TestNetworkFailureLeavesPendingForRetry(t *testing.T) {
	client := &fakeTradeClient{declineErr: errors.New("timeout")}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), pendingProduct(), cache.StatusFresh)

	err := svc.Decline(context.Background(), "p1", "seller")

	var failure *domain.Failure
	require.ErrorAs(t, err, &failure)
	require.True(t, failure.Retryable())

	rec, _ := store.Get(cache.ProductKey("p1"))
	require.Equal(t, domain.RequestPending, rec.Payload.(*domain.Product).RequestState())
	require.Equal(t, cache.StatusFresh, rec.Status)
}

func TestValidActions(t *testing.T) {
	p := pendingProduct()
	require.Equal(t, []Action{ActionAccept, ActionDecline}, ValidActions(p, "seller"))
	require.Equal(t, []Action{ActionCancel}, ValidActions(p, "buyer"))
	require.Nil(t, ValidActions(p, "stranger"))

	p.Request.State = domain.RequestAccepted
	require.Nil(t, ValidActions(p, "seller"))

	require.Nil(t, ValidActions(&domain.Product{ID: "p2"}, "seller"))
}
