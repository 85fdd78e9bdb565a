package domain

import "time"

// ActivityType is the closed set of notification kinds the feed carries.
type ActivityType string

const (
	// ActivityUnknown stands in for types this client version does not
	// recognize; the feed renders them as plain informational rows.
	ActivityUnknown ActivityType = "unknown"

	ActivityProductLike      ActivityType = "product_like"
	ActivityUserLike         ActivityType = "user_like"
	ActivityChat             ActivityType = "chat"
	ActivityPurchaseRequest  ActivityType = "purchase_request"
	ActivityPurchaseAccepted ActivityType = "purchase_accepted"
	ActivityReviewPrompt     ActivityType = "review_prompt"
	ActivityReviewReceived   ActivityType = "review_received"
	ActivityFollow           ActivityType = "follow"
)

// Activity is one feed entry aggregating senders who performed the same
// kind of action against an optional product within a time window.
//
// Senders is ordered most-recent-first and never empty. UserCount may
// exceed len(Senders) when the server truncates the materialized list.
// Product is nil when the referenced listing has been deleted; the
// activity itself survives the deletion.
type Activity struct {
	ID        string
	Type      ActivityType
	Senders   []User
	UserCount int
	Product   *Product
	CreatedAt time.Time
	Read      bool
}

// LeadSender returns the most recent sender.
func (a *Activity) LeadSender() User {
	if len(a.Senders) == 0 {
		return User{}
	}
	return a.Senders[0]
}

// OtherCount returns how many senders exist beyond the materialized list.
func (a *Activity) OtherCount() int {
	n := a.UserCount - len(a.Senders)
	if n < 0 {
		return 0
	}
	return n
}

// RequestState returns the purchase-request sub-state of the referenced
// product. RequestNone when the activity carries no product or the
// product carries no request.
func (a *Activity) RequestState() RequestState {
	if a == nil || a.Product == nil {
		return RequestNone
	}
	return a.Product.RequestState()
}
