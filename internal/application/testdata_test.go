package application_test

import (
	"context"
	"errors"
	"testing"

	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/infrastructure/memstore"
)

func TestSeedTestSeller_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := newNotifier()
	svc := application.NewService(store, nil, notifier, nil, nil, nil, application.Options{})

	in := application.TestSellerInput{
		Email:           "test@example.com",
		FirstName:       "Tess",
		LastName:        "Ter",
		BrandName:       "Testwear",
		Percentage:      55,
		StockPerProduct: 20,
	}
	created, err := svc.SeedTestSeller(ctx, in)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created.Action != application.ActionCreated || created.ProductsTouched != 3 || created.SoldPerProduct != 11 {
		t.Fatalf("unexpected result: %+v", created)
	}
	if created.TotalStock != 60 || created.TotalSold != 33 || created.PercentLabel != "55" {
		t.Errorf("unexpected totals: %+v", created)
	}

	products, _ := store.QueryEqual(ctx, domain.CollectionProducts, "sellerId", created.SellerID)
	if len(products) != 3 {
		t.Fatalf("products = %d, want 3", len(products))
	}

	res, err := svc.RunPass(ctx, application.TriggerManual)
	if err != nil || res.Sent != 1 || res.Notices[0].Tier != domain.TierFifty {
		t.Fatalf("pass after seeding: %+v, %v", res, err)
	}

	in.Percentage = 80
	updated, err := svc.SeedTestSeller(ctx, in)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if updated.Action != application.ActionUpdated || updated.SellerID != created.SellerID || updated.SoldPerProduct != 16 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	// Flags are left for the engine; the fifty flag it set must survive reseeding.
	fifty, seventy := flags(store, created.SellerID)
	if !fifty || seventy {
		t.Errorf("flags after reseed: fifty=%v seventy=%v", fifty, seventy)
	}

	res, _ = svc.RunPass(ctx, application.TriggerManual)
	if res.Sent != 1 || res.Notices[0].Tier != domain.TierSeventy {
		t.Errorf("pass after reseed: %+v", res)
	}
}

func TestSeedTestSeller_Validation(t *testing.T) {
	svc := application.NewService(memstore.New(), nil, newNotifier(), nil, nil, nil, application.Options{})

	tests := []struct {
		name string
		in   application.TestSellerInput
	}{
		{"missing email", application.TestSellerInput{Percentage: 10, StockPerProduct: 5}},
		{"negative percentage", application.TestSellerInput{Email: "a@b.c", Percentage: -1, StockPerProduct: 5}},
		{"percentage over 100", application.TestSellerInput{Email: "a@b.c", Percentage: 101, StockPerProduct: 5}},
		{"zero stock", application.TestSellerInput{Email: "a@b.c", Percentage: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SeedTestSeller(context.Background(), tt.in)
			if !errors.Is(err, application.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestDeleteTestSeller(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := application.NewService(store, nil, newNotifier(), nil, nil, nil, application.Options{})

	created, err := svc.SeedTestSeller(ctx, application.TestSellerInput{Email: "gone@example.com", Percentage: 10, StockPerProduct: 4})
	if err != nil {
		t.Fatal(err)
	}
	seedProduct(store, "other", "someone-else", 5, 1)

	res, err := svc.DeleteTestSeller(ctx, "gone@example.com")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.SellerID != created.SellerID || res.ProductsTouched != 3 || res.Action != application.ActionDeleted {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := store.Read(ctx, domain.CollectionSellers, created.SellerID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("seller still present: %v", err)
	}
	left, _ := store.ReadAll(ctx, domain.CollectionProducts)
	if len(left) != 1 {
		t.Errorf("products left = %d, want 1", len(left))
	}

	if _, err := svc.DeleteTestSeller(ctx, "gone@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

// passOnPatchStore runs hook just before the first seller patch lands.
type passOnPatchStore struct {
	*memstore.Store
	hook func()
}

func (s *passOnPatchStore) SetFields(ctx context.Context, collection, id string, fields domain.Record) error {
	if collection == domain.CollectionSellers && s.hook != nil {
		hook := s.hook
		s.hook = nil
		hook()
	}
	return s.Store.SetFields(ctx, collection, id, fields)
}

func TestSeedTestSeller_UpdateKeepsFlagsFromConcurrentPass(t *testing.T) {
	ctx := context.Background()
	store := &passOnPatchStore{Store: memstore.New()}
	notifier := newNotifier()
	svc := application.NewService(store, nil, notifier, nil, nil, nil, application.Options{})

	in := application.TestSellerInput{Email: "race@example.com", Percentage: 10, StockPerProduct: 10}
	created, err := svc.SeedTestSeller(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	// Products already read 80% when the pass lands between the product
	// updates and the seller patch.
	store.hook = func() {
		if _, err := svc.RunPass(ctx, application.TriggerManual); err != nil {
			t.Errorf("pass during reseed: %v", err)
		}
	}
	in.Percentage = 80
	if _, err := svc.SeedTestSeller(ctx, in); err != nil {
		t.Fatal(err)
	}
	if notifier.count() != 1 {
		t.Fatalf("notices during reseed = %d, want 1", notifier.count())
	}
	if _, seventy := flags(store, created.SellerID); !seventy {
		t.Fatal("seventy flag lost by reseed")
	}
	doc, _ := store.Read(ctx, domain.CollectionSellers, created.SellerID)
	if doc["percentage"] != 80.0 || doc["email"] != "race@example.com" {
		t.Errorf("seller after reseed = %v", doc)
	}

	res, err := svc.RunPass(ctx, application.TriggerManual)
	if err != nil || res.Sent != 0 {
		t.Errorf("next pass: %+v, %v", res, err)
	}
	if notifier.count() != 1 {
		t.Errorf("total notices = %d, want 1", notifier.count())
	}
}

func TestSeedTestSeller_UpdatesProductsLinkedByUID(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := application.NewService(store, nil, newNotifier(), nil, nil, nil, application.Options{})

	seedSeller(store, "s1", domain.Record{"uid": "auth-1", "email": "legacy@example.com"})
	seedProduct(store, "p1", "s1", 10, 0)
	seedProduct(store, "p2", "auth-1", 10, 0)
	// s2's uid is s3's canonical id, so s3's products stay with s3.
	seedSeller(store, "s2", domain.Record{"uid": "s3"})
	seedSeller(store, "s3", nil)
	seedProduct(store, "p3", "s3", 10, 0)

	res, err := svc.SeedTestSeller(ctx, application.TestSellerInput{Email: "legacy@example.com", Percentage: 60, StockPerProduct: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != application.ActionUpdated || res.ProductsTouched != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, id := range []string{"p1", "p2"} {
		doc, _ := store.Read(ctx, domain.CollectionProducts, id)
		if doc["sold"] != 6.0 || doc["stock"] != 10.0 {
			t.Errorf("%s = %v", id, doc)
		}
	}

	res, err = svc.SeedTestSeller(ctx, application.TestSellerInput{Email: "s2@example.com", Percentage: 60, StockPerProduct: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.ProductsTouched != 0 {
		t.Errorf("products touched through another seller's id = %d", res.ProductsTouched)
	}
	doc, _ := store.Read(ctx, domain.CollectionProducts, "p3")
	if doc["sold"] != 0.0 {
		t.Errorf("p3 = %v", doc)
	}
}
