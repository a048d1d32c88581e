package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/messages"
)

// ErrInvalidInput is returned for malformed admin tool requests.
var ErrInvalidInput = errors.New("invalid input")

// Test-data actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type productTemplate struct {
	name          string
	price         float64
	originalPrice float64
	discount      int
	keywords      []string
}

var testProducts = []productTemplate{
	{"Premium Cotton T-Shirt", 1500, 2000, 25, []string{"men", "cotton", "t-shirt", "casual"}},
	{"Denim Jeans", 2500, 3000, 17, []string{"men", "denim", "jeans", "casual"}},
	{"Leather Jacket", 5000, 6000, 17, []string{"men", "leather", "jacket", "formal"}},
}

// SeedTestSeller creates a synthetic seller with three products sold at the
// requested percentage. When a seller with the same email exists, only the
// sold counts of their products are updated. Notice flags are never touched
// here; the next pass decides them.
func (s *Service) SeedTestSeller(ctx context.Context, in TestSellerInput) (*TestSellerResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if in.Percentage < 0 || in.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidInput)
	}
	if in.StockPerProduct < 1 {
		return nil, fmt.Errorf("%w: stock per product must be at least 1", ErrInvalidInput)
	}
	soldPerProduct := int64(math.Round(float64(in.StockPerProduct) * in.Percentage / 100))
	now := s.now().UTC().Format(time.RFC3339)

	existing, err := s.store.QueryEqual(ctx, domain.CollectionSellers, "email", in.Email)
	if err != nil {
		return nil, fmt.Errorf("find seller: %w", err)
	}
	for sellerID, doc := range existing {
		touched, err := s.updateSold(ctx, domain.SellerFromRecord(sellerID, doc), soldPerProduct)
		if err != nil {
			return nil, err
		}
		// Patch only what seeding owns; flags written by a concurrent pass survive.
		patch := domain.Record{"percentage": in.Percentage, "dateUpdated": now}
		if err := s.store.SetFields(ctx, domain.CollectionSellers, sellerID, patch); err != nil {
			return nil, fmt.Errorf("update seller %s: %w", sellerID, err)
		}
		log.Info().Str("seller", sellerID).Int("products", touched).Msg("test seller updated")
		return seedResult(sellerID, ActionUpdated, touched, in.StockPerProduct, soldPerProduct), nil
	}

	sellerID := uuid.NewString()
	seller := domain.Record{
		"uid":                   sellerID,
		"id":                    sellerID,
		"email":                 in.Email,
		"firstName":             in.FirstName,
		"lastName":              in.LastName,
		"brandName":             in.BrandName,
		"percentage":            in.Percentage,
		domain.FieldSentFifty:   false,
		domain.FieldSentSeventy: false,
		"status":                "approved",
		"dateCreated":           now,
		"isTestUser":            true,
	}
	if err := s.store.Write(ctx, domain.CollectionSellers, sellerID, seller); err != nil {
		return nil, fmt.Errorf("create seller: %w", err)
	}
	for i, t := range testProducts {
		productID := fmt.Sprintf("product_%d_%s", i+1, sellerID)
		product := domain.Record{
			"id":              productID,
			"name":            t.name,
			"brand":           in.BrandName,
			"price":           t.price,
			"originalPrice":   t.originalPrice,
			"discountPercent": t.discount,
			"category":        "men",
			"stock":           in.StockPerProduct,
			"sold":            soldPerProduct,
			"sellerId":        sellerID,
			"keywords":        t.keywords,
			"onSale":          true,
			"createdAt":       now,
			"isSellerBlocked": false,
		}
		if err := s.store.Write(ctx, domain.CollectionProducts, productID, product); err != nil {
			return nil, fmt.Errorf("create product %s: %w", productID, err)
		}
	}
	log.Info().Str("seller", sellerID).Str("email", in.Email).Msg("test seller created")
	return seedResult(sellerID, ActionCreated, len(testProducts), in.StockPerProduct, soldPerProduct), nil
}

func (s *Service) updateSold(ctx context.Context, seller domain.Seller, sold int64) (int, error) {
	products, err := s.sellerProducts(ctx, seller)
	if err != nil {
		return 0, err
	}
	for id := range products {
		if err := s.store.SetFields(ctx, domain.CollectionProducts, id, domain.Record{"sold": sold}); err != nil {
			return 0, fmt.Errorf("update product %s: %w", id, err)
		}
	}
	return len(products), nil
}

// sellerProducts finds products linked by the seller's canonical id or by
// their historical uid. The uid is skipped when it is another seller's id.
func (s *Service) sellerProducts(ctx context.Context, seller domain.Seller) (map[string]domain.Record, error) {
	products, err := s.store.QueryEqual(ctx, domain.CollectionProducts, "sellerId", seller.ID)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	if seller.AuthUID == "" || seller.AuthUID == seller.ID {
		return products, nil
	}
	_, err = s.store.Read(ctx, domain.CollectionSellers, seller.AuthUID)
	switch {
	case err == nil:
		return products, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("resolve seller uid: %w", err)
	}
	legacy, err := s.store.QueryEqual(ctx, domain.CollectionProducts, "sellerId", seller.AuthUID)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	for id, doc := range legacy {
		products[id] = doc
	}
	return products, nil
}

func seedResult(sellerID, action string, products int, stockPer, soldPer int64) *TestSellerResult {
	totalStock := int64(products) * stockPer
	totalSold := int64(products) * soldPer
	return &TestSellerResult{
		SellerID:        sellerID,
		Action:          action,
		ProductsTouched: products,
		SoldPerProduct:  soldPer,
		TotalStock:      totalStock,
		TotalSold:       totalSold,
		PercentLabel:    messages.FormatPercent(domain.PercentSold(totalSold, totalStock)),
	}
}

// DeleteTestSeller removes a seller found by email and all of their products.
func (s *Service) DeleteTestSeller(ctx context.Context, email string) (*TestSellerResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	existing, err := s.store.QueryEqual(ctx, domain.CollectionSellers, "email", email)
	if err != nil {
		return nil, fmt.Errorf("find seller: %w", err)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("seller %s: %w", email, domain.ErrNotFound)
	}

	result := &TestSellerResult{Action: ActionDeleted}
	for sellerID, doc := range existing {
		products, err := s.sellerProducts(ctx, domain.SellerFromRecord(sellerID, doc))
		if err != nil {
			return nil, err
		}
		for id := range products {
			if err := s.store.Write(ctx, domain.CollectionProducts, id, nil); err != nil {
				return nil, fmt.Errorf("delete product %s: %w", id, err)
			}
		}
		if err := s.store.Write(ctx, domain.CollectionSellers, sellerID, nil); err != nil {
			return nil, fmt.Errorf("delete seller %s: %w", sellerID, err)
		}
		result.SellerID = sellerID
		result.ProductsTouched += len(products)
		log.Info().Str("seller", sellerID).Int("products", len(products)).Msg("test seller deleted")
	}
	return result, nil
}
