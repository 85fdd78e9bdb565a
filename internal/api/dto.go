package api

// DTOs mirror the marketplace REST API wire format.

type userDTO struct {
	ID        string  `json:"id"`
	Nickname  string  `json:"nickname"`
	AvatarURL string  `json:"avatarUrl"`
	Region    string  `json:"region"`
	Rating    float64 `json:"rating"`
	Liked     bool    `json:"liked"`
	LikeCount int     `json:"likeCount"`
	JoinedAt  int64   `json:"joinedAt"`
}

type purchaseRequestDTO struct {
	BuyerID   string `json:"buyerId"`
	State     string `json:"state"`
	CreatedAt int64  `json:"createdAt"`
}

type productDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Price       int64               `json:"price"`
	SellerID    string              `json:"sellerId"`
	Seller      *userDTO            `json:"seller,omitempty"`
	ImageURLs   []string            `json:"imageUrls"`
	Liked       bool                `json:"liked"`
	LikeCount   int                 `json:"likeCount"`
	Sold        bool                `json:"sold"`
	Request     *purchaseRequestDTO `json:"purchaseRequest,omitempty"`
	CreatedAt   int64               `json:"createdAt"`
	UpdatedAt   int64               `json:"updatedAt"`
}

type activityDTO struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Senders   []userDTO   `json:"senders"`
	UserCount int         `json:"userCount"`
	Product   *productDTO `json:"product,omitempty"` // null when the listing was deleted
	CreatedAt int64       `json:"createdAt"`
	Read      bool        `json:"read"`
}

type productsPageDTO struct {
	Items []productDTO `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

type usersPageDTO struct {
	Items []userDTO `json:"items"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
}

type activitiesPageDTO struct {
	Items []activityDTO `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

type likeResultDTO struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type countDTO struct {
	Count int `json:"count"`
}

type searchesDTO struct {
	Terms []string `json:"terms"`
}

type errorDTO struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
