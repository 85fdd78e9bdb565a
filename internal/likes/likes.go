package likes

import (
	"context"
	"log/slog"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/mutate"
)

// Service toggles like relations for products and profiles.
//
// Product and user records are the normalized truth for liked-ness; the
// liked-products and liked-profiles collections hold id lists joined
// against those records at render time. A toggle therefore mutates one
// record through the coordinator, and membership lists are reconciled
// only after the server confirms.
type Service struct {
	client domain.SocialClient
	store  *cache.Store
	coord  *mutate.Coordinator
	logger *slog.Logger
}

// NewService creates a likes Service.
func NewService(client domain.SocialClient, store *cache.Store, coord *mutate.Coordinator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, coord: coord, logger: logger}
}

// ToggleProduct flips the like on a product. The optimistic flip lands
// before the server call; the server's liked state and count are
// authoritative on confirmation. Rapid re-taps queue behind the in-flight
// toggle and apply to its settled result.
func (s *Service) ToggleProduct(ctx context.Context, productID string) mutate.Outcome {
	key := cache.ProductKey(productID)

	var result domain.LikeResult
	outcome := s.coord.Mutate(ctx, key,
		func(payload any) any {
			p, _ := payload.(*domain.Product)
			return toggledProduct(p, productID)
		},
		func(ctx context.Context) (any, error) {
			res, err := s.client.ToggleProductLike(ctx, productID)
			if err != nil {
				return nil, err
			}
			result = res
			return nil, nil
		},
	)
	if outcome.Failure != nil {
		return outcome
	}

	// Reconcile with the authoritative state and the membership list.
	s.coord.Apply(key, func(payload any) any {
		p, _ := payload.(*domain.Product)
		if p == nil {
			return payload
		}
		next := *p
		next.Liked = result.Liked
		next.LikeCount = result.LikeCount
		return &next
	})
	s.coord.Apply(cache.LikedProductsKey(), membershipTransform(productID, result.Liked))

	s.logger.Debug("product like toggled", "product", productID, "liked", result.Liked, "mutation", outcome.ID)
	return outcome
}

// ToggleUser flips the like on a seller profile.
func (s *Service) ToggleUser(ctx context.Context, userID string) mutate.Outcome {
	key := cache.UserKey(userID)

	var result domain.LikeResult
	outcome := s.coord.Mutate(ctx, key,
		func(payload any) any {
			u, _ := payload.(*domain.User)
			return toggledUser(u, userID)
		},
		func(ctx context.Context) (any, error) {
			res, err := s.client.ToggleUserLike(ctx, userID)
			if err != nil {
				return nil, err
			}
			result = res
			return nil, nil
		},
	)
	if outcome.Failure != nil {
		return outcome
	}

	s.coord.Apply(key, func(payload any) any {
		u, _ := payload.(*domain.User)
		if u == nil {
			return payload
		}
		next := *u
		next.Liked = result.Liked
		next.LikeCount = result.LikeCount
		return &next
	})
	s.coord.Apply(cache.LikedProfilesKey(), membershipTransform(userID, result.Liked))

	s.logger.Debug("user like toggled", "user", userID, "liked", result.Liked, "mutation", outcome.ID)
	return outcome
}

// LikedProductIDs returns the cached liked-products membership list.
func (s *Service) LikedProductIDs() []string {
	rec, ok := s.store.Get(cache.LikedProductsKey())
	if !ok {
		return nil
	}
	ids, _ := rec.Payload.([]string)
	return ids
}

func toggledProduct(p *domain.Product, productID string) *domain.Product {
	if p == nil {
		// Toggling a product we never fetched; seed a minimal record so
		// observers of the key still see consistent liked-ness.
		return &domain.Product{ID: productID, Liked: true, LikeCount: 1}
	}
	next := *p
	next.Liked = !p.Liked
	if next.Liked {
		next.LikeCount = p.LikeCount + 1
	} else if p.LikeCount > 0 {
		next.LikeCount = p.LikeCount - 1
	}
	return &next
}

func toggledUser(u *domain.User, userID string) *domain.User {
	if u == nil {
		return &domain.User{ID: userID, Liked: true, LikeCount: 1}
	}
	next := *u
	next.Liked = !u.Liked
	if next.Liked {
		next.LikeCount = u.LikeCount + 1
	} else if u.LikeCount > 0 {
		next.LikeCount = u.LikeCount - 1
	}
	return &next
}

// membershipTransform adds or removes id from an id-list payload,
// keeping newest-first order on insert.
func membershipTransform(id string, member bool) mutate.Transform {
	return func(payload any) any {
		ids, _ := payload.([]string)
		filtered := make([]string, 0, len(ids)+1)
		if member {
			filtered = append(filtered, id)
		}
		for _, existing := range ids {
			if existing != id {
				filtered = append(filtered, existing)
			}
		}
		return filtered
	}
}
