package handlers_test

import (
	"testing"

	"onsalenow.io/analytics/internal/domain"
	_ "onsalenow.io/analytics/internal/kafka/handlers"
	"onsalenow.io/analytics/internal/kafka/registry"
)

func TestProductEvents(t *testing.T) {
	for _, eventType := range []string{"PRODUCT_SOLD", "PRODUCT_STOCK_UPDATED", "PRODUCT_CREATED"} {
		t.Run(eventType, func(t *testing.T) {
			msg := `{"eventType":"` + eventType + `","eventId":"e1","payload":{"productId":"p1","sellerId":"s1"}}`
			got := registry.Dispatch("product-events", []byte(msg))
			if got == nil {
				t.Fatal("expected a snapshot change")
			}
			if got.Source != domain.SourceProducts || got.EntityID != "p1" || got.EventID != "e1" || got.EventType != eventType {
				t.Errorf("unexpected change: %+v", got)
			}
		})
	}
}

func TestProductEvent_BadPayload(t *testing.T) {
	msg := `{"eventType":"PRODUCT_SOLD","payload":"not an object"}`
	if got := registry.Dispatch("product-events", []byte(msg)); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSellerEvents(t *testing.T) {
	msg := `{"eventType":"SELLER_UPDATED","eventId":"e2","payload":{"sellerId":"s9"}}`
	got := registry.Dispatch("seller-events", []byte(msg))
	if got == nil || got.Source != domain.SourceSellers || got.EntityID != "s9" {
		t.Fatalf("unexpected change: %+v", got)
	}

	if registry.Dispatch("seller-events", []byte(`{"eventType":"SELLER_DELETED"}`)) != nil {
		t.Fatal("unregistered seller event must be skipped")
	}
}

func TestDirectCommand(t *testing.T) {
	got := registry.DispatchDirect("analytics-commands", []byte(`{"commandId":"c1","reason":"bulk import"}`))
	if got == nil || got.Source != domain.SourceCommand || got.EventID != "c1" || got.Reason != "bulk import" {
		t.Fatalf("unexpected change: %+v", got)
	}
	if registry.DispatchDirect("analytics-commands", []byte(`{`)) != nil {
		t.Fatal("expected nil for invalid JSON")
	}
}
