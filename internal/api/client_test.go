package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "token-123", nil)
}

func TestGetProductMapsPurchaseRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/p1", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"id": "p1", "title": "Road Bike", "price": 125000, "sellerId": "u2",
			"liked": true, "likeCount": 4,
			"purchaseRequest": {"buyerId": "u9", "state": "pending", "createdAt": 1700000000}
		}`))
	})

	p, err := client.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Road Bike", p.Title)
	require.Equal(t, domain.RequestPending, p.RequestState())
	require.True(t, p.IsRequester("u9"))
	require.Equal(t, "$1250", p.FormattedPrice())
}

func TestGetProductsPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items": [{"id": "p1"}, {"id": "p2"}], "page": 2, "limit": 20, "total": 45}`))
	})

	page, err := client.GetProducts(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.True(t, page.HasMore())
}

func TestGetActivitiesDeletedProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"id": "a1", "type": "product_like", "senders": [{"id": "u1"}], "userCount": 3, "product": null},
			{"id": "a2", "type": "something_new", "senders": [{"id": "u2"}], "userCount": 1}
		], "page": 1, "limit": 20, "total": 2}`))
	})

	page, err := client.GetActivities(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Nil(t, page.Items[0].Product)
	require.Equal(t, 2, page.Items[0].OtherCount())
	require.Equal(t, domain.ActivityUnknown, page.Items[1].Type)
}

func TestToggleLikeReturnsAuthoritativeState(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/products/p1/like", r.URL.Path)
		w.Write([]byte(`{"liked": true, "likeCount": 8}`))
	})

	res, err := client.ToggleProductLike(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, domain.LikeResult{Liked: true, LikeCount: 8}, res)
}

func TestConflictMapsToConflictFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": {"code": "request_resolved", "message": "already accepted"}}`))
	})

	err := client.AcceptPurchaseRequest(context.Background(), "p1")
	f := domain.AsFailure(err)
	require.Equal(t, domain.FailureConflict, f.Kind)
	require.Equal(t, "request_resolved", f.Code)
	require.False(t, f.Retryable())
}

func TestUnauthorizedMapsToAuthSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetProduct(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, domain.FailureValidation, domain.AsFailure(err).Kind)
}

func TestServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.MarkAllActivitiesRead(context.Background())
	require.True(t, domain.AsFailure(err).Retryable())
}

func TestTransportErrorWrapsOfflineSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, "t", nil)

	_, err := client.GetProducts(context.Background(), 1, 20)
	require.ErrorIs(t, err, domain.ErrServerOffline)
	require.True(t, domain.AsFailure(err).Retryable())
}
