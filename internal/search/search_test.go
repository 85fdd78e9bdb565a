package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
)

type fakeCatalogClient struct {
	searches []string
	err      error
	calls    int
}

func (f *fakeCatalogClient) Me(context.Context) (*domain.User, error) { return nil, nil }

func (f *fakeCatalogClient) GetProducts(context.Context, int, int) (domain.Page[*domain.Product], error) {
	return domain.Page[*domain.Product]{}, nil
}

func (f *fakeCatalogClient) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, nil
}

func (f *fakeCatalogClient) GetLikedProducts(context.Context, int, int) (domain.Page[*domain.Product], error) {
	return domain.Page[*domain.Product]{}, nil
}

func (f *fakeCatalogClient) GetLikedProfiles(context.Context, int, int) (domain.Page[*domain.User], error) {
	return domain.Page[*domain.User]{}, nil
}

func (f *fakeCatalogClient) GetRecentSearches(context.Context, int) ([]string, error) {
	f.calls++
	return f.searches, f.err
}

func products(titles ...string) []*domain.Product {
	out := make([]*domain.Product, len(titles))
	for i, title := range titles {
		out[i] = &domain.Product{ID: title, Title: title}
	}
	return out
}

func TestRecentSearchesCachesResult(t *testing.T) {
	client := &fakeCatalogClient{searches: []string{"bike", "lamp"}}
	store := cache.New(0, nil)
	svc := NewService(client, store, nil)

	terms, err := svc.RecentSearches(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"bike", "lamp"}, terms)

	_, err = svc.RecentSearches(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)
}

func TestRecentSearchesRefetchesWhenStale(t *testing.T) {
	client := &fakeCatalogClient{searches: []string{"bike"}}
	store := cache.New(0, nil)
	svc := NewService(client, store, nil)

	_, err := svc.RecentSearches(context.Background())
	require.NoError(t, err)

	store.InvalidateKey(cache.RecentSearchesKey())
	_, err = svc.RecentSearches(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
}

func TestRecentSearchesError(t *testing.T) {
	client := &fakeCatalogClient{err: errors.New("offline")}
	svc := NewService(client, cache.New(0, nil), nil)

	_, err := svc.RecentSearches(context.Background())
	require.Error(t, err)
}

func TestFilterRanksByTitle(t *testing.T) {
	items := products("Vintage Bicycle", "Bike Helmet", "Table Lamp")

	results := Filter("bike", items)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotEqual(t, "Table Lamp", r.Product.Title)
	}
	require.Equal(t, "Bike Helmet", results[0].Product.Title)
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	items := products("A", "B", "C")
	results := Filter("  ", items)
	require.Len(t, results, 3)
	require.Equal(t, "A", results[0].Product.Title)
}
