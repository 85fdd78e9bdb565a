package domain

import "context"

// LikeResult is the authoritative like state returned by a toggle call.
type LikeResult struct {
	Liked     bool
	LikeCount int
}

// CatalogClient provides read access to listing collections.
type CatalogClient interface {
	// Me returns the logged-in user.
	Me(ctx context.Context) (*User, error)

	// GetProducts returns one page of the home feed.
	GetProducts(ctx context.Context, page, limit int) (Page[*Product], error)

	// GetProduct returns detailed data for a single listing.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetLikedProducts returns one page of the logged-in user's liked listings.
	GetLikedProducts(ctx context.Context, page, limit int) (Page[*Product], error)

	// GetLikedProfiles returns one page of the logged-in user's liked sellers.
	GetLikedProfiles(ctx context.Context, page, limit int) (Page[*User], error)

	// GetRecentSearches returns the user's recent search terms, newest first.
	GetRecentSearches(ctx context.Context, limit int) ([]string, error)
}

// SocialClient provides like toggles and the activity feed.
type SocialClient interface {
	// GetActivities returns one page of the activity feed, newest first.
	GetActivities(ctx context.Context, page, limit int) (Page[*Activity], error)

	// ToggleProductLike flips the like relation and returns the
	// authoritative state. Toggle semantics: the call itself is not
	// idempotent at the network layer.
	ToggleProductLike(ctx context.Context, productID string) (LikeResult, error)

	// ToggleUserLike flips the like relation for a profile.
	ToggleUserLike(ctx context.Context, userID string) (LikeResult, error)

	// MarkActivityRead marks a single activity as read.
	MarkActivityRead(ctx context.Context, activityID string) error

	// MarkAllActivitiesRead marks every activity as read.
	MarkAllActivitiesRead(ctx context.Context) error
}

// TradeClient drives the purchase-request handshake and reviews.
type TradeClient interface {
	// AcceptPurchaseRequest accepts the pending request. Seller only.
	AcceptPurchaseRequest(ctx context.Context, productID string) error

	// DeclinePurchaseRequest declines the pending request. Seller only.
	DeclinePurchaseRequest(ctx context.Context, productID string) error

	// CancelPurchaseRequest withdraws the pending request. Requester only.
	CancelPurchaseRequest(ctx context.Context, productID string) error

	// CreateReview records a review for a completed trade.
	CreateReview(ctx context.Context, input ReviewInput) error
}

// CounterClient exposes the badge counters.
type CounterClient interface {
	// GetUnseenActivityCount returns the number of unseen activities.
	GetUnseenActivityCount(ctx context.Context) (int, error)

	// GetUnreadChatCount returns the number of chats with unread messages.
	GetUnreadChatCount(ctx context.Context) (int, error)
}

// MarketClient is the full backend surface the client consumes.
type MarketClient interface {
	CatalogClient
	SocialClient
	TradeClient
	CounterClient
}
