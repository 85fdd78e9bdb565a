package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/feed"
	"github.com/lwgren/loppis/internal/likes"
	"github.com/lwgren/loppis/internal/purchase"
	"github.com/lwgren/loppis/internal/review"
	"github.com/lwgren/loppis/internal/search"
)

// Command factories for async operations

const requestTimeout = 30 * time.Second

// LoadMeCmd fetches the logged-in user and caches it
func LoadMeCmd(client domain.CatalogClient, store *cache.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		me, err := client.Me(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading profile"}
		}
		store.Set(cache.MeKey(), me, cache.StatusFresh)
		return MeLoadedMsg{User: me}
	}
}

// LoadProductsCmd fetches one home-feed page. Product records are cached
// individually; the list key holds ids only.
func LoadProductsCmd(client domain.CatalogClient, store *cache.Store, page, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := client.GetProducts(ctx, page, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading products"}
		}

		// Cached payloads are immutable, so the id list is rebuilt rather
		// than appended in place.
		var ids []string
		if page > 1 {
			ids = append(ids, cachedIDs(store, cache.ProductListKey())...)
		}
		for _, p := range result.Items {
			store.Set(cache.ProductKey(p.ID), p, cache.StatusFresh)
			ids = append(ids, p.ID)
		}
		store.Set(cache.ProductListKey(), ids, cache.StatusFresh)

		return ProductsLoadedMsg{Products: result.Items, Page: page, HasMore: result.HasMore()}
	}
}

// LoadProductCmd fetches detail for a single listing
func LoadProductCmd(client domain.CatalogClient, store *cache.Store, productID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := client.GetProduct(ctx, productID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading product"}
		}
		store.Set(cache.ProductKey(p.ID), p, cache.StatusFresh)
		return ProductLoadedMsg{Product: p}
	}
}

// LoadLikedProductsCmd fetches the liked-products tab content
func LoadLikedProductsCmd(client domain.CatalogClient, store *cache.Store, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := client.GetLikedProducts(ctx, 1, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading liked products"}
		}

		ids := make([]string, 0, len(result.Items))
		for _, p := range result.Items {
			store.Set(cache.ProductKey(p.ID), p, cache.StatusFresh)
			ids = append(ids, p.ID)
		}
		store.Set(cache.LikedProductsKey(), ids, cache.StatusFresh)

		return LikedProductsLoadedMsg{Products: result.Items}
	}
}

// LoadLikedProfilesCmd fetches the liked-profiles tab content
func LoadLikedProfilesCmd(client domain.CatalogClient, store *cache.Store, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := client.GetLikedProfiles(ctx, 1, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading liked profiles"}
		}

		ids := make([]string, 0, len(result.Items))
		for _, u := range result.Items {
			store.Set(cache.UserKey(u.ID), u, cache.StatusFresh)
			ids = append(ids, u.ID)
		}
		store.Set(cache.LikedProfilesKey(), ids, cache.StatusFresh)

		return LikedProfilesLoadedMsg{Profiles: result.Items}
	}
}

// RefreshFeedCmd refreshes the activity feed from the server
func RefreshFeedCmd(svc *feed.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		activities, err := svc.Refresh(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "refreshing activity"}
		}
		return ActivitiesLoadedMsg{Activities: activities}
	}
}

// LoadRecentSearchesCmd fetches the recent search terms
func LoadRecentSearchesCmd(svc *search.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		terms, err := svc.RecentSearches(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading recent searches"}
		}
		return RecentSearchesLoadedMsg{Terms: terms}
	}
}

// ToggleProductLikeCmd toggles a product like. The optimistic flip is
// already visible through the cache subscription by the time this settles.
func ToggleProductLikeCmd(svc *likes.Service, productID string) tea.Cmd {
	return func() tea.Msg {
		outcome := svc.ToggleProduct(context.Background(), productID)
		return LikeSettledMsg{ID: productID, Confirmed: outcome.Confirmed, Failure: outcome.Failure}
	}
}

// ToggleUserLikeCmd toggles a profile like
func ToggleUserLikeCmd(svc *likes.Service, userID string) tea.Cmd {
	return func() tea.Msg {
		outcome := svc.ToggleUser(context.Background(), userID)
		return LikeSettledMsg{ID: userID, Confirmed: outcome.Confirmed, Failure: outcome.Failure}
	}
}

// PurchaseActionCmd runs a purchase-request action and, on success,
// reconciles the request state onto cached feed entries.
func PurchaseActionCmd(svc *purchase.Service, feedSvc *feed.Service, action purchase.Action, productID, actorID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		switch action {
		case purchase.ActionDecline:
			err = svc.Decline(ctx, productID, actorID)
		case purchase.ActionCancel:
			err = svc.Cancel(ctx, productID, actorID)
		default:
			err = svc.Accept(ctx, productID, actorID)
		}
		if err == nil {
			feedSvc.ReconcileRequestState(productID, settledState(action))
		}
		return RequestSettledMsg{ProductID: productID, Err: err}
	}
}

func settledState(action purchase.Action) domain.RequestState {
	switch action {
	case purchase.ActionDecline:
		return domain.RequestDeclined
	case purchase.ActionCancel:
		return domain.RequestCancelled
	default:
		return domain.RequestAccepted
	}
}

// MarkActivityReadCmd marks one activity read
func MarkActivityReadCmd(svc *feed.Service, activityID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := svc.MarkRead(ctx, activityID)
		return ActivityReadMsg{ActivityID: activityID, Err: err}
	}
}

// MarkAllReadCmd marks every activity read
func MarkAllReadCmd(svc *feed.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.MarkAllRead(ctx); err != nil {
			return ErrMsg{Err: err, Context: "marking all read"}
		}
		return ActivityReadMsg{}
	}
}

// SubmitReviewCmd submits a review through the gate
func SubmitReviewCmd(gate *review.Gate, a *domain.Activity, reviewerID string, input domain.ReviewInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := gate.Submit(ctx, a, reviewerID, input)
		return ReviewSubmittedMsg{ProductID: input.ProductID, Err: err}
	}
}

// ResolveActivityCmd resolves an activity press into navigation and marks
// the activity read on the way
func ResolveActivityCmd(svc *feed.Service, a *domain.Activity) tea.Cmd {
	return tea.Batch(
		MarkActivityReadCmd(svc, a.ID),
		func() tea.Msg {
			return NavigateMsg{Nav: svc.Resolve(a)}
		},
	)
}

// RefreshCountsCmd forces a badge counter refresh
func RefreshCountsCmd(counters *counter.Synchronizer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_ = counters.Refresh(ctx)
		return nil
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

func cachedIDs(store *cache.Store, key cache.Key) []string {
	rec, ok := store.Get(key)
	if !ok {
		return nil
	}
	ids, _ := rec.Payload.([]string)
	return ids
}
