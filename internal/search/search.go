package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/domain"
)

const defaultRecentLimit = 10

// Result is a filtered product with its match score (lower is better).
type Result struct {
	Product *domain.Product
	Score   int
}

// Service provides the recent-searches collection and local fuzzy
// filtering over already-cached products. Filtering never touches the
// network; the home grid filters what it has.
type Service struct {
	client domain.CatalogClient
	store  *cache.Store
	logger *slog.Logger
}

// NewService creates a search Service.
func NewService(client domain.CatalogClient, store *cache.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, logger: logger}
}

// RecentSearches returns the user's recent search terms, from cache
// when fresh, otherwise fetched and cached.
func (s *Service) RecentSearches(ctx context.Context) ([]string, error) {
	key := cache.RecentSearchesKey()
	if rec, ok := s.store.Get(key); ok && rec.Status == cache.StatusFresh {
		if terms, ok := rec.Payload.([]string); ok {
			return terms, nil
		}
	}

	terms, err := s.client.GetRecentSearches(ctx, defaultRecentLimit)
	if err != nil {
		s.logger.Error("failed to fetch recent searches", "error", err)
		return nil, err
	}
	s.store.Set(key, terms, cache.StatusFresh)
	return terms, nil
}

// Filter ranks products against query by title. Empty query returns
// everything in input order with zero scores.
func Filter(query string, products []*domain.Product) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]Result, len(products))
		for i, p := range products {
			results[i] = Result{Product: p}
		}
		return results
	}

	titles := make([]string, len(products))
	for i, p := range products {
		titles[i] = p.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	results := make([]Result, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, Result{Product: products[r.OriginalIndex], Score: r.Distance})
	}
	return results
}
