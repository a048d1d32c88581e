package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is a schemaless document as held by the document store.
type Record map[string]any

// Clone returns a deep copy so callers never mutate the store's view.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		out := make(Record, len(r))
		for k, v := range r {
			out[k] = v
		}
		return out
	}
	var out Record
	_ = json.Unmarshal(b, &out)
	return out
}

// String returns the field as a trimmed string, or "" when absent or not a string.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// Bool returns the field as a boolean. Absent or malformed values are false.
func (r Record) Bool(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Count returns the field as a non-negative integer. Non-numeric, negative
// or missing values count as zero.
func (r Record) Count(field string) int64 {
	var f float64
	switch v := r[field].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return int64(f)
}

// Number returns the field as a float, parsing price-like strings ("Rs. 1,500").
func (r Record) Number(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		return ParsePrice(v)
	}
	return 0
}

// ParsePrice strips everything but digits and dots and parses the remainder.
func ParsePrice(s string) float64 {
	var b strings.Builder
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// SellerFromRecord decodes a seller document stored under id.
// Historical flag names are honoured as aliases.
func SellerFromRecord(id string, r Record) Seller {
	return Seller{
		ID:                       id,
		AuthUID:                  r.String("uid"),
		Email:                    r.String("email"),
		FirstName:                r.String("firstName"),
		LastName:                 r.String("lastName"),
		BrandName:                r.String("brandName"),
		SentFiftyPercentNotice:   r.Bool(FieldSentFifty) || r.Bool(legacyFieldFifty),
		SentSeventyPercentNotice: r.Bool(FieldSentSeventy) || r.Bool(legacyFieldSeventy),
	}
}

// ProductFromRecord decodes a product document stored under id.
func ProductFromRecord(id string, r Record) Product {
	return Product{
		ID:       id,
		SellerID: r.String("sellerId"),
		Stock:    r.Count("stock"),
		Sold:     r.Count("sold"),
		Brand:    r.String("brand"),
		Category: r.String("category"),
	}
}
