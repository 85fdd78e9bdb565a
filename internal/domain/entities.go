package domain

import (
	"fmt"
	"time"
)

// User represents a marketplace member (buyer, seller, or both).
type User struct {
	ID        string // Server-assigned unique identifier
	Nickname  string // Display name
	AvatarURL string // Profile image URL
	Region    string // Neighborhood label shown next to listings
	Rating    float64
	Liked     bool // Whether the logged-in user likes this profile
	LikeCount int
	JoinedAt  time.Time
}

// RequestState is the lifecycle state of a product's purchase request.
type RequestState int

const (
	RequestNone RequestState = iota
	RequestPending
	RequestAccepted
	RequestDeclined
	RequestCancelled
)

// String returns the wire/display name of the state.
func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestAccepted:
		return "accepted"
	case RequestDeclined:
		return "declined"
	case RequestCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Terminal reports whether the state can never change again without a
// fresh request from a buyer.
func (s RequestState) Terminal() bool {
	return s == RequestAccepted || s == RequestDeclined || s == RequestCancelled
}

// PurchaseRequest is the seller-side pending state created when a buyer
// asks to pay in person. At most one lives on a product at a time.
type PurchaseRequest struct {
	BuyerID   string
	State     RequestState
	CreatedAt time.Time
}

// Product represents a single listing.
type Product struct {
	ID          string
	Title       string
	Description string
	Price       int64 // Minor currency units
	SellerID    string
	Seller      *User // Populated on detail fetches, may be nil in lists
	ImageURLs   []string
	Liked       bool // Whether the logged-in user likes this product
	LikeCount   int
	Sold        bool
	Request     *PurchaseRequest // nil when no request is outstanding
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequestState returns the product's purchase-request state, RequestNone
// when no request is attached.
func (p *Product) RequestState() RequestState {
	if p == nil || p.Request == nil {
		return RequestNone
	}
	return p.Request.State
}

// IsSeller reports whether userID owns this listing.
func (p *Product) IsSeller(userID string) bool {
	return p != nil && p.SellerID == userID
}

// IsRequester reports whether userID is the buyer behind the outstanding
// purchase request.
func (p *Product) IsRequester(userID string) bool {
	return p != nil && p.Request != nil && p.Request.BuyerID == userID
}

// FormattedPrice renders the price for display.
func (p *Product) FormattedPrice() string {
	if p == nil {
		return ""
	}
	if p.Price%100 == 0 {
		return fmt.Sprintf("$%d", p.Price/100)
	}
	return fmt.Sprintf("$%d.%02d", p.Price/100, p.Price%100)
}

// Review is a rating left by a buyer or seller after a completed trade.
type Review struct {
	ID         string
	ReviewerID string
	RevieweeID string
	ProductID  string
	Rating     int // 1-5
	Comment    string
	CreatedAt  time.Time
}

// ReviewInput is the payload for submitting a new review.
type ReviewInput struct {
	RevieweeID string
	ProductID  string
	Rating     int
	Comment    string
}

// Counts holds the two badge counters the client tracks.
type Counts struct {
	UnseenActivities int
	UnreadChats      int
}

// Page is one page of a fetched collection.
type Page[T any] struct {
	Items []T
	Page  int // 1-based page number
	Limit int
	Total int // Total items server-side, for HasMore
}

// HasMore reports whether pages remain after this one.
func (p Page[T]) HasMore() bool {
	if p.Limit <= 0 {
		return false
	}
	return p.Page*p.Limit < p.Total
}
