package likes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

type fakeSocialClient struct {
	liked     bool
	count     int
	toggleErr error
	toggles   int
}

func (f *fakeSocialClient) GetActivities(context.Context, int, int) (domain.Page[*domain.Activity], error) {
	return domain.Page[*domain.Activity]{}, nil
}

func (f *fakeSocialClient) ToggleProductLike(context.Context, string) (domain.LikeResult, error) {
	if f.toggleErr != nil {
		return domain.LikeResult{}, f.toggleErr
	}
	f.toggles++
	f.liked = !f.liked
	if f.liked {
		f.count++
	} else {
		f.count--
	}
	return domain.LikeResult{Liked: f.liked, LikeCount: f.count}, nil
}

func (f *fakeSocialClient) ToggleUserLike(ctx context.Context, id string) (domain.LikeResult, error) {
	return f.ToggleProductLike(ctx, id)
}

func (f *fakeSocialClient) MarkActivityRead(context.Context, string) error { return nil }
func (f *fakeSocialClient) MarkAllActivitiesRead(context.Context) error { return nil }

func newService(client *fakeSocialClient) (*Service, *cache.Store) {
	store := cache.New(0, nil)
	return NewService(client, store, mutate.New(store, nil), nil), store
}

func TestToggleProductConfirmsServerState(t *testing.T) {
	client := &fakeSocialClient{count: 3}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), &domain.Product{ID: "p1", LikeCount: 3}, cache.StatusFresh)

	out := svc.ToggleProduct(context.Background(), "p1")
	require.True(t, out.Confirmed)

	rec, _ := store.Get(cache.ProductKey("p1"))
	p := rec.Payload.(*domain.Product)
	require.True(t, p.Liked)
	require.Equal(t, 4, p.LikeCount)
	require.Equal(t, []string{"p1"}, svc.LikedProductIDs())
}

func TestToggleProductRollsBackMembership(t *testing.T) {
	client := &fakeSocialClient{toggleErr: errors.New("connection refused")}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), &domain.Product{ID: "p1", Liked: false, LikeCount: 7}, cache.StatusFresh)

	out := svc.ToggleProduct(context.Background(), "p1")
	require.NotNil(t, out.Failure)
	require.Equal(t, domain.FailureNetwork, out.Failure.Kind)

	rec, _ := store.Get(cache.ProductKey("p1"))
	p := rec.Payload.(*domain.Product)
	require.False(t, p.Liked)
	require.Equal(t, 7, p.LikeCount)
	require.Empty(t, svc.LikedProductIDs())
}

// Two rapid taps settle as two toggles applied in issue order: an
// initially-unliked product ends unliked.
func TestDoubleTapEndsUnliked(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store := newService(client)
	store.Set(cache.ProductKey("p1"), &domain.Product{ID: "p1"}, cache.StatusFresh)

	svc.ToggleProduct(context.Background(), "p1")
	svc.ToggleProduct(context.Background(), "p1")

	require.Equal(t, 2, client.toggles)
	rec, _ := store.Get(cache.ProductKey("p1"))
	require.False(t, rec.Payload.(*domain.Product).Liked)
	require.Empty(t, svc.LikedProductIDs())
}

func TestToggleSeedsUnfetchedProduct(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store := newService(client)

	out := svc.ToggleProduct(context.Background(), "p9")
	require.True(t, out.Confirmed)

	rec, ok := store.Get(cache.ProductKey("p9"))
	require.True(t, ok)
	require.True(t, rec.Payload.(*domain.Product).Liked)
}

func TestToggleUserUpdatesProfileList(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store := newService(client)
	store.Set(cache.UserKey("u1"), &domain.User{ID: "u1", Nickname: "Stig"}, cache.StatusFresh)
	store.Set(cache.LikedProfilesKey(), []string{"u7"}, cache.StatusFresh)

	out := svc.ToggleUser(context.Background(), "u1")
	require.True(t, out.Confirmed)

	rec, _ := store.Get(cache.LikedProfilesKey())
	require.Equal(t, []string{"u1", "u7"}, rec.Payload.([]string))
}

// Observers of the record and of the collection list agree within a
// single notification pass: the record write is the only carrier of
// liked-ness, so no two views can disagree mid-toggle.
func TestObserversAgreeDuringToggle(t *testing.T) {
	client := &fakeSocialClient{}
	svc, store := newService(client)
	key := cache.ProductKey("p1")
	store.Set(key, &domain.Product{ID: "p1"}, cache.StatusFresh)

	var fromRecord, fromCollection []bool
	store.Subscribe(key, func(_ cache.Key, rec cache.Record) {
		if p, ok := rec.Payload.(*domain.Product); ok {
			fromRecord = append(fromRecord, p.Liked)
		}
	})
	store.Subscribe(cache.NewKey(cache.CollectionProducts), func(_ cache.Key, rec cache.Record) {
		if p, ok := rec.Payload.(*domain.Product); ok {
			fromCollection = append(fromCollection, p.Liked)
		}
	})

	svc.ToggleProduct(context.Background(), "p1")
	require.Equal(t, fromRecord, fromCollection)
}
