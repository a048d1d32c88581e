package domain_test

import (
	"encoding/json"
	"testing"

	"onsalenow.io/analytics/internal/domain"
)

func TestRecordCount_ToleratesBadShapes(t *testing.T) {
	r := domain.Record{
		"f":       float64(12),
		"i":       7,
		"s":       " 42 ",
		"bad":     "lots",
		"neg":     float64(-3),
		"frac":    2.9,
		"num":     json.Number("5"),
		"nothing": nil,
	}
	cases := map[string]int64{"f": 12, "i": 7, "s": 42, "bad": 0, "neg": 0, "frac": 2, "num": 5, "nothing": 0, "missing": 0}
	for field, want := range cases {
		if got := r.Count(field); got != want {
			t.Errorf("Count(%q) = %d, want %d", field, got, want)
		}
	}
}

func TestSellerFromRecord_LegacyFlags(t *testing.T) {
	s := domain.SellerFromRecord("k1", domain.Record{
		"uid":                   "auth-1",
		"email":                 "seller@example.com",
		"isSeventyPercentEmail": true,
	})
	if s.ID != "k1" || s.AuthUID != "auth-1" || s.Email != "seller@example.com" {
		t.Fatalf("unexpected seller: %+v", s)
	}
	if !s.SentSeventyPercentNotice || s.SentFiftyPercentNotice {
		t.Fatalf("legacy flag not honoured: %+v", s)
	}
}

func TestSellerFromRecord_AbsentFlagsDefaultFalse(t *testing.T) {
	s := domain.SellerFromRecord("k1", domain.Record{"email": "x@example.com"})
	if s.SentFiftyPercentNotice || s.SentSeventyPercentNotice {
		t.Fatalf("flags must default to false: %+v", s)
	}
}

func TestProductFromRecord(t *testing.T) {
	p := domain.ProductFromRecord("p1", domain.Record{
		"sellerId": "s1",
		"stock":    "100",
		"sold":     float64(70),
		"brand":    "Acme",
	})
	if p.SellerID != "s1" || p.Stock != 100 || p.Sold != 70 || p.Brand != "Acme" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestParsePrice(t *testing.T) {
	if got := domain.ParsePrice("Rs. 1,500"); got != 1500 {
		t.Fatalf("got %v", got)
	}
	if got := domain.ParsePrice("free"); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestRecordClone_IsDeep(t *testing.T) {
	orig := domain.Record{"nested": map[string]any{"a": 1.0}}
	c := orig.Clone()
	c["nested"].(map[string]any)["a"] = 2.0
	if orig["nested"].(map[string]any)["a"] != 1.0 {
		t.Fatal("clone shares nested maps")
	}
}
