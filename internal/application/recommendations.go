package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/domain"
)

// ErrRecommenderDisabled is returned when no recommendation service is configured.
var ErrRecommenderDisabled = errors.New("recommendation service not configured")

// HomeRecommendations returns the storefront home list. Failures surface as
// an empty list plus the error; they are not retried.
func (s *Service) HomeRecommendations(ctx context.Context, topN int) ([]domain.ProductSummary, error) {
	if s.recommender == nil {
		return []domain.ProductSummary{}, ErrRecommenderDisabled
	}
	products, err := s.recommender.Home(ctx, topN)
	if err != nil {
		log.Warn().Err(err).Msg("home recommendations unavailable")
		return []domain.ProductSummary{}, err
	}
	return products, nil
}

// ForYouRecommendations returns products matching the user's active brand
// and category subscriptions.
func (s *Service) ForYouRecommendations(ctx context.Context, userID string, topN int) ([]domain.ProductSummary, error) {
	if s.recommender == nil {
		return []domain.ProductSummary{}, ErrRecommenderDisabled
	}
	brands, err := s.activeSubscriptions(ctx, domain.CollectionBrandSubscriptions, userID, "brandName")
	if err != nil {
		return []domain.ProductSummary{}, err
	}
	categories, err := s.activeSubscriptions(ctx, domain.CollectionCategorySubscriptions, userID, "categoryName")
	if err != nil {
		return []domain.ProductSummary{}, err
	}

	products, err := s.recommender.ForYou(ctx, brands, categories, topN)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("for-you recommendations unavailable")
		return []domain.ProductSummary{}, err
	}
	return products, nil
}

func (s *Service) activeSubscriptions(ctx context.Context, collection, userID, nameField string) ([]string, error) {
	docs, err := s.store.QueryEqual(ctx, collection, "userId", userID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		if !d.Bool("active") {
			continue
		}
		if name := d.String(nameField); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
