package handlers

import (
	"onsalenow.io/analytics/internal/domain"
)

func init() {
	Register("seller-events", "SELLER_CREATED", handleSellerChanged)
	Register("seller-events", "SELLER_UPDATED", handleSellerChanged)
}

func handleSellerChanged(data []byte) *domain.SnapshotChange {
	var p struct {
		SellerID string `json:"sellerId"`
	}
	env, ok := parseEnvelope(data, &p)
	if !ok {
		return nil
	}
	return &domain.SnapshotChange{
		Source:    domain.SourceSellers,
		EventType: env.EventType,
		EventID:   env.EventID,
		EntityID:  p.SellerID,
	}
}
