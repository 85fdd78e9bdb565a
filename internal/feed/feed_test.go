package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

type fakeSocialClient struct {
	pages       []domain.Page[*domain.Activity]
	markReadErr error
	markAllErr  error
	readCalls   []string
	markAlls    int
}

func (f *fakeSocialClient) GetActivities(_ context.Context, page, _ int) (domain.Page[*domain.Activity], error) {
	if page-1 < len(f.pages) {
		return f.pages[page-1], nil
	}
	return domain.Page[*domain.Activity]{Page: page}, nil
}

func (f *fakeSocialClient) ToggleProductLike(context.Context, string) (domain.LikeResult, error) {
	return domain.LikeResult{}, nil
}

func (f *fakeSocialClient) ToggleUserLike(context.Context, string) (domain.LikeResult, error) {
	return domain.LikeResult{}, nil
}

func (f *fakeSocialClient) MarkActivityRead(_ context.Context, id string) error {
	f.readCalls = append(f.readCalls, id)
	return f.markReadErr
}

func (f *fakeSocialClient) MarkAllActivitiesRead(context.Context) error {
	f.markAlls++
	return f.markAllErr
}

type fakeCounterClient struct{}

func (fakeCounterClient) GetUnseenActivityCount(context.Context) (int, error) { return 0, nil }
func (fakeCounterClient) GetUnreadChatCount(context.Context) (int, error)    { return 0, nil }

func activity(id string, read bool) *domain.Activity {
	return &domain.Activity{
		ID:        id,
		Type:      domain.ActivityProductLike,
		Senders:   []domain.User{{ID: "u1", Nickname: "Maja"}},
		UserCount: 1,
		Product:   &domain.Product{ID: "p-" + id, SellerID: "me"},
		Read:      read,
	}
}

func newService(client *fakeSocialClient) (*Service, *cache.Store, *counter.Synchronizer) {
	store := cache.New(0, nil)
	coord := mutate.New(store, nil)
	counters := counter.New(fakeCounterClient{}, nil)
	return NewService(client, store, coord, counters, nil), store, counters
}

func TestRefreshPagesThroughFeed(t *testing.T) {
	client := &fakeSocialClient{pages: []domain.Page[*domain.Activity]{
		{Items: []*domain.Activity{activity("a1", false), activity("a2", false)}, Page: 1, Limit: 2, Total: 3},
		{Items: []*domain.Activity{activity("a3", true)}, Page: 2, Limit: 2, Total: 3},
	}}
	svc, store, _ := newService(client)

	got, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	rec, ok := store.Get(cache.ActivitiesKey())
	require.True(t, ok)
	require.Equal(t, cache.StatusFresh, rec.Status)
}

func TestRefreshErrorFlagsRecordKeepsPayload(t *testing.T) {
	svc, store, _ := newService(&fakeSocialClient{})
	store.Set(cache.ActivitiesKey(), []*domain.Activity{activity("a1", false)}, cache.StatusFresh)

	// No pages configured means empty fetch succeeds; force the error
	// path through a cancelled context instead.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Refresh(ctx)
	require.Error(t, err)

	rec, _ := store.Get(cache.ActivitiesKey())
	require.Equal(t, cache.StatusError, rec.Status)
	require.Len(t, rec.Payload.([]*domain.Activity), 1)
}

func TestMarkReadFlipsAndDecrements(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store, counters := newService(client)
	counters.SetFromServer(domain.Counts{UnseenActivities: 2})
	store.Set(cache.ActivitiesKey(), []*domain.Activity{activity("a1", false), activity("a2", false)}, cache.StatusFresh)

	require.NoError(t, svc.MarkRead(context.Background(), "a1"))

	activities, _ := svc.Cached()
	require.True(t, activities[0].Read)
	require.False(t, activities[1].Read)
	require.Equal(t, 1, counters.Counts().UnseenActivities)
	require.Equal(t, []string{"a1"}, client.readCalls)
}

func TestMarkReadAlreadyReadIsNoOp(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store, counters := newService(client)
	counters.SetFromServer(domain.Counts{UnseenActivities: 1})
	store.Set(cache.ActivitiesKey(), []*domain.Activity{activity("a1", true)}, cache.StatusFresh)

	require.NoError(t, svc.MarkRead(context.Background(), "a1"))
	require.Empty(t, client.readCalls)
	require.Equal(t, 1, counters.Counts().UnseenActivities)
}

func TestMarkReadRollsBackOnFailure(t *testing.T) {
	client := &fakeSocialClient{markReadErr: errors.New("timeout")}
	svc, store, _ := newService(client)
	store.Set(cache.ActivitiesKey(), []*domain.Activity{activity("a1", false)}, cache.StatusFresh)

	err := svc.MarkRead(context.Background(), "a1")
	require.Error(t, err)

	activities, _ := svc.Cached()
	require.False(t, activities[0].Read)
}

func TestMarkAllReadZeroesBadge(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store, counters := newService(client)
	counters.SetFromServer(domain.Counts{UnseenActivities: 5})
	store.Set(cache.ActivitiesKey(), []*domain.Activity{
		activity("a1", false), activity("a2", false), activity("a3", true),
	}, cache.StatusFresh)

	require.NoError(t, svc.MarkAllRead(context.Background()))
	require.Equal(t, 1, client.markAlls)
	require.Equal(t, 0, counters.Counts().UnseenActivities)

	activities, _ := svc.Cached()
	for _, a := range activities {
		require.True(t, a.Read)
	}
}

func TestResolveDeletedProductDegradesToInfo(t *testing.T) {
	svc, _, _ := newService(&fakeSocialClient{})

	a := activity("a1", false)
	a.Product = nil // Listing deleted server-side; activity survives.

	nav := svc.Resolve(a)
	require.Equal(t, NavInfo, nav.Kind)
	require.NotEmpty(t, nav.Message)
}

func TestResolveRouting(t *testing.T) {
	svc, _, _ := newService(&fakeSocialClient{})

	a := activity("a1", false)
	require.Equal(t, NavProduct, svc.Resolve(a).Kind)

	a.Type = domain.ActivityChat
	require.Equal(t, NavChat, svc.Resolve(a).Kind)

	a.Type = domain.ActivityUserLike
	nav := svc.Resolve(a)
	require.Equal(t, NavProfile, nav.Kind)
	require.Equal(t, "u1", nav.UserID)
}

func TestReconcileRequestState(t *testing.T) {
	svc, store, _ := newService(&fakeSocialClient{})

	a := activity("a1", false)
	a.Type = domain.ActivityPurchaseRequest
	a.Product.Request = &domain.PurchaseRequest{BuyerID: "u1", State: domain.RequestPending}
	other := activity("a2", false)
	store.Set(cache.ActivitiesKey(), []*domain.Activity{a, other}, cache.StatusFresh)

	svc.ReconcileRequestState(a.Product.ID, domain.RequestAccepted)

	activities, _ := svc.Cached()
	require.Equal(t, domain.RequestAccepted, activities[0].RequestState())
	require.Equal(t, domain.RequestNone, activities[1].RequestState())
	// The original value was not mutated in place.
	require.Equal(t, domain.RequestPending, a.Product.Request.State)
}
