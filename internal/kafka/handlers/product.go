package handlers

import (
	"onsalenow.io/analytics/internal/domain"
)

const productTopic = "product-events"

func init() {
	Register(productTopic, "PRODUCT_SOLD", handleProductChanged)
	Register(productTopic, "PRODUCT_STOCK_UPDATED", handleProductChanged)
	Register(productTopic, "PRODUCT_CREATED", handleProductChanged)
}

type productPayload struct {
	ProductID string `json:"productId"`
	SellerID  string `json:"sellerId"`
}

// handleProductChanged covers every product event that moves stock or sold counts.
func handleProductChanged(data []byte) *domain.SnapshotChange {
	var p productPayload
	env, ok := parseEnvelope(data, &p)
	if !ok {
		return nil
	}
	return &domain.SnapshotChange{
		Source:    domain.SourceProducts,
		EventType: env.EventType,
		EventID:   env.EventID,
		EntityID:  p.ProductID,
	}
}
