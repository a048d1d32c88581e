package application_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/infrastructure/memstore"
)

type sentMail struct {
	address, subject, body string
}

// fakeNotifier records deliveries; addresses in fail are rejected.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func newNotifier() *fakeNotifier {
	return &fakeNotifier{fail: map[string]bool{}}
}

func (f *fakeNotifier) Send(_ context.Context, address, subject, body string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[address] {
		return false
	}
	f.sent = append(f.sent, sentMail{address, subject, body})
	return true
}

func (f *fakeNotifier) setFailing(address string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[address] = failing
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// flakyStore fails flag writes while failFlag is set.
type flakyStore struct {
	*memstore.Store
	failFlag atomic.Bool
}

func (s *flakyStore) SetFlag(ctx context.Context, collection, id, field string) error {
	if s.failFlag.Load() {
		return errors.New("store unavailable")
	}
	return s.Store.SetFlag(ctx, collection, id, field)
}

type fakeLocker struct {
	ok       bool
	err      error
	released atomic.Int32
}

func (l *fakeLocker) TryAcquire(context.Context, string) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, l.ok, l.err
	}
	return func() { l.released.Add(1) }, true, nil
}

type fakeHub struct {
	mu      sync.Mutex
	results []*application.PassResult
}

func (h *fakeHub) Publish(r *application.PassResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
}

func seedSeller(store domain.Store, id string, fields domain.Record) {
	r := domain.Record{"email": id + "@example.com", "firstName": "Ann"}
	for k, v := range fields {
		r[k] = v
	}
	if err := store.Write(context.Background(), domain.CollectionSellers, id, r); err != nil {
		panic(err)
	}
}

func seedProduct(store domain.Store, id, sellerID string, stock, sold int) {
	r := domain.Record{"sellerId": sellerID, "stock": stock, "sold": sold, "brand": "Acme", "category": "men"}
	if err := store.Write(context.Background(), domain.CollectionProducts, id, r); err != nil {
		panic(err)
	}
}

func setSold(store domain.Store, id string, sold int) {
	ctx := context.Background()
	r, err := store.Read(ctx, domain.CollectionProducts, id)
	if err != nil {
		panic(err)
	}
	r["sold"] = sold
	if err := store.Write(ctx, domain.CollectionProducts, id, r); err != nil {
		panic(err)
	}
}

func flags(store domain.Store, sellerID string) (fifty, seventy bool) {
	r, err := store.Read(context.Background(), domain.CollectionSellers, sellerID)
	if err != nil {
		panic(err)
	}
	s := domain.SellerFromRecord(sellerID, r)
	return s.SentFiftyPercentNotice, s.SentSeventyPercentNotice
}

// gatedNotifier holds every send until release is closed; entered closes on
// the first send.
type gatedNotifier struct {
	*fakeNotifier
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{
		fakeNotifier: newNotifier(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (g *gatedNotifier) Send(ctx context.Context, address, subject, body string) bool {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.fakeNotifier.Send(ctx, address, subject, body)
}
