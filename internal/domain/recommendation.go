package domain

import (
	"encoding/json"
	"math"
)

// ProductSummary is a product card returned by the recommendation service.
// Price fields arrive as numbers or free-form strings, so they stay raw.
type ProductSummary struct {
	ID              json.RawMessage `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Image           string          `json:"image,omitempty"`
	Price           json.RawMessage `json:"price,omitempty"`
	OriginalPrice   json.RawMessage `json:"originalPrice,omitempty"`
	DiscountPercent json.RawMessage `json:"discountPercent,omitempty"`
	Brand           string          `json:"brand,omitempty"`
	Category        string          `json:"category,omitempty"`

	// EffectiveDiscountPercent is filled by Decorate.
	EffectiveDiscountPercent int `json:"effectiveDiscountPercent"`
}

// Decorate computes EffectiveDiscountPercent: an explicit positive
// discountPercent wins, otherwise the rounded markdown from originalPrice.
func (p *ProductSummary) Decorate() {
	if d := rawNumber(p.DiscountPercent); d > 0 {
		p.EffectiveDiscountPercent = int(math.Round(d))
		return
	}
	p.EffectiveDiscountPercent = DiscountPercent(rawNumber(p.OriginalPrice), rawNumber(p.Price))
}

// DiscountPercent returns the rounded markdown, or zero when there is none.
func DiscountPercent(original, current float64) int {
	if original > 0 && current > 0 && original > current {
		return int(math.Round((original - current) / original * 100))
	}
	return 0
}

func rawNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return Record{"v": v}.Number("v")
}
