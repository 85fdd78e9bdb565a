package api

import (
	"time"

	"github.com/lwgren/loppis/internal/domain"
)

func mapUser(dto userDTO) *domain.User {
	return &domain.User{
		ID:        dto.ID,
		Nickname:  dto.Nickname,
		AvatarURL: dto.AvatarURL,
		Region:    dto.Region,
		Rating:    dto.Rating,
		Liked:     dto.Liked,
		LikeCount: dto.LikeCount,
		JoinedAt:  time.Unix(dto.JoinedAt, 0),
	}
}

func mapRequestState(s string) domain.RequestState {
	switch s {
	case "pending":
		return domain.RequestPending
	case "accepted":
		return domain.RequestAccepted
	case "declined":
		return domain.RequestDeclined
	case "cancelled":
		return domain.RequestCancelled
	default:
		return domain.RequestNone
	}
}

func mapPurchaseRequest(dto *purchaseRequestDTO) *domain.PurchaseRequest {
	if dto == nil {
		return nil
	}
	return &domain.PurchaseRequest{
		BuyerID:   dto.BuyerID,
		State:     mapRequestState(dto.State),
		CreatedAt: time.Unix(dto.CreatedAt, 0),
	}
}

func mapProduct(dto productDTO) *domain.Product {
	p := &domain.Product{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Price:       dto.Price,
		SellerID:    dto.SellerID,
		ImageURLs:   dto.ImageURLs,
		Liked:       dto.Liked,
		LikeCount:   dto.LikeCount,
		Sold:        dto.Sold,
		Request:     mapPurchaseRequest(dto.Request),
		CreatedAt:   time.Unix(dto.CreatedAt, 0),
		UpdatedAt:   time.Unix(dto.UpdatedAt, 0),
	}
	if dto.Seller != nil {
		p.Seller = mapUser(*dto.Seller)
	}
	return p
}

func mapActivityType(s string) domain.ActivityType {
	switch domain.ActivityType(s) {
	case domain.ActivityProductLike, domain.ActivityUserLike, domain.ActivityChat,
		domain.ActivityPurchaseRequest, domain.ActivityPurchaseAccepted,
		domain.ActivityReviewPrompt, domain.ActivityReviewReceived, domain.ActivityFollow:
		return domain.ActivityType(s)
	default:
		return domain.ActivityUnknown
	}
}

func mapActivity(dto activityDTO) *domain.Activity {
	a := &domain.Activity{
		ID:        dto.ID,
		Type:      mapActivityType(dto.Type),
		UserCount: dto.UserCount,
		CreatedAt: time.Unix(dto.CreatedAt, 0),
		Read:      dto.Read,
	}
	for _, s := range dto.Senders {
		a.Senders = append(a.Senders, *mapUser(s))
	}
	if dto.Product != nil {
		a.Product = mapProduct(*dto.Product)
	}
	return a
}

func mapProductsPage(dto productsPageDTO) domain.Page[*domain.Product] {
	page := domain.Page[*domain.Product]{Page: dto.Page, Limit: dto.Limit, Total: dto.Total}
	for _, item := range dto.Items {
		page.Items = append(page.Items, mapProduct(item))
	}
	return page
}

func mapUsersPage(dto usersPageDTO) domain.Page[*domain.User] {
	page := domain.Page[*domain.User]{Page: dto.Page, Limit: dto.Limit, Total: dto.Total}
	for _, item := range dto.Items {
		page.Items = append(page.Items, mapUser(item))
	}
	return page
}

func mapActivitiesPage(dto activitiesPageDTO) domain.Page[*domain.Activity] {
	page := domain.Page[*domain.Activity]{Page: dto.Page, Limit: dto.Limit, Total: dto.Total}
	for _, item := range dto.Items {
		page.Items = append(page.Items, mapActivity(item))
	}
	return page
}
