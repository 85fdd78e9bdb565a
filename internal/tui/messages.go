package tui

import (
	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/feed"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// MeLoadedMsg signals that the logged-in user has been loaded
type MeLoadedMsg struct {
	User *domain.User
}

// ProductsLoadedMsg signals that a home-feed page has been loaded
type ProductsLoadedMsg struct {
	Products []*domain.Product
	Page     int
	HasMore  bool
}

// ProductLoadedMsg signals that product detail has been loaded
type ProductLoadedMsg struct {
	Product *domain.Product
}

// LikedProductsLoadedMsg signals that the liked-products tab content is ready
type LikedProductsLoadedMsg struct {
	Products []*domain.Product
}

// LikedProfilesLoadedMsg signals that the liked-profiles tab content is ready
type LikedProfilesLoadedMsg struct {
	Profiles []*domain.User
}

// ActivitiesLoadedMsg signals that the activity feed has been refreshed
type ActivitiesLoadedMsg struct {
	Activities []*domain.Activity
}

// RecentSearchesLoadedMsg carries the recent search terms
type RecentSearchesLoadedMsg struct {
	Terms []string
}

// LikeSettledMsg signals that a like toggle settled (confirmed or rolled back)
type LikeSettledMsg struct {
	ID        string // product or user id
	Confirmed bool
	Failure   *domain.Failure
}

// RequestSettledMsg signals that a purchase-request action settled
type RequestSettledMsg struct {
	ProductID string
	Err       error
}

// ReviewSubmittedMsg signals that a review submission settled
type ReviewSubmittedMsg struct {
	ProductID string
	Err       error
}

// ActivityReadMsg signals that a mark-read settled
type ActivityReadMsg struct {
	ActivityID string
	Err        error
}

// NavigateMsg asks the app to move to the target an activity resolved to
type NavigateMsg struct {
	Nav feed.Navigation
}

// CountsMsg carries updated badge counters
type CountsMsg struct {
	Counts domain.Counts
}

// CacheEventMsg carries a cache write observed through a subscription
type CacheEventMsg struct {
	Key    cache.Key
	Record cache.Record
}

// StatusMsg sets a temporary status bar message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// ShowHelpMsg shows the help screen
type ShowHelpMsg struct{}

// HideHelpMsg hides the help screen
type HideHelpMsg struct{}
