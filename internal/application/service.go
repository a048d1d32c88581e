package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/messages"
	"onsalenow.io/analytics/internal/metrics"
)

// ErrPassInProgress is returned when another instance holds the pass lease.
var ErrPassInProgress = errors.New("evaluation pass already in progress")

// Options tunes the notification engine.
type Options struct {
	// Concurrency bounds how many sellers are notified in parallel.
	Concurrency int
	// OutboxEnabled records intent before sending; requires an Outbox.
	OutboxEnabled bool
	// ClaimLease is how long a pending outbox claim blocks other passes.
	ClaimLease time.Duration
	// LockKey is the cross-process lease key.
	LockKey string
}

// Service holds the analytics and notification use-cases.
type Service struct {
	store       domain.Store
	outbox      domain.Outbox
	notifier    Notifier
	recommender Recommender
	locker      PassLocker
	hub         StatusHub
	opts        Options

	// passMu serialises passes inside one process.
	passMu sync.Mutex
	now    func() time.Time
}

// NewService creates a new application Service. outbox, recommender, locker
// and hub may be nil.
func NewService(store domain.Store, outbox domain.Outbox, notifier Notifier, recommender Recommender, locker PassLocker, hub StatusHub, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = 5 * time.Minute
	}
	if opts.LockKey == "" {
		opts.LockKey = "sellthrough:pass"
	}
	if outbox == nil {
		opts.OutboxEnabled = false
	}
	return &Service{
		store:       store,
		outbox:      outbox,
		notifier:    notifier,
		recommender: recommender,
		locker:      locker,
		hub:         hub,
		opts:        opts,
		now:         time.Now,
	}
}

// snapshot is one consistent-enough read of sellers and products.
type snapshot struct {
	sellers  []domain.Seller
	products []domain.Product
	stats    []domain.SellerStats
}

// loadSnapshot reads sellers and products, resolves historical seller ids
// and aggregates. Stats are never cached across passes.
func (s *Service) loadSnapshot(ctx context.Context) (*snapshot, error) {
	sellerDocs, err := s.store.ReadAll(ctx, domain.CollectionSellers)
	if err != nil {
		return nil, fmt.Errorf("load sellers: %w", err)
	}
	productDocs, err := s.store.ReadAll(ctx, domain.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	sellers := make([]domain.Seller, 0, len(sellerDocs))
	for id, r := range sellerDocs {
		if id == "" {
			continue
		}
		sellers = append(sellers, domain.SellerFromRecord(id, r))
	}
	products := make([]domain.Product, 0, len(productDocs))
	for id, r := range productDocs {
		products = append(products, domain.ProductFromRecord(id, r))
	}
	products = domain.CanonicalizeProducts(sellers, products)

	return &snapshot{
		sellers:  sellers,
		products: products,
		stats:    domain.Aggregate(sellers, products),
	}, nil
}

// RunPass loads a fresh snapshot and evaluates every seller once.
func (s *Service) RunPass(ctx context.Context, trigger Trigger) (*PassResult, error) {
	result, _, err := s.runPass(ctx, trigger)
	return result, err
}

// runPass takes the pass locks, then loads the snapshot it evaluates, so a
// pass never acts on flags read before the previous pass finished. The
// snapshot is returned for callers that render it. The pass is detached
// from ctx cancellation: once begun, every seller's sequence runs to completion.
func (s *Service) runPass(ctx context.Context, trigger Trigger) (*PassResult, *snapshot, error) {
	ctx = context.WithoutCancel(ctx)

	s.passMu.Lock()
	defer s.passMu.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.TryAcquire(ctx, s.opts.LockKey)
		if err != nil {
			// Lease backend down: fall back to in-process serialisation.
			log.Warn().Err(err).Msg("pass lease unavailable, continuing without it")
		} else if !ok {
			metrics.PassesSkipped.WithLabelValues(string(trigger)).Inc()
			log.Info().Str("trigger", string(trigger)).Msg("evaluation pass skipped, lease held elsewhere")
			return nil, nil, ErrPassInProgress
		} else {
			defer release()
		}
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	result := &PassResult{
		PassID:    uuid.New(),
		Trigger:   trigger,
		StartedAt: s.now(),
	}
	s.evaluate(ctx, result, snap)
	result.DurationMS = s.now().Sub(result.StartedAt).Milliseconds()

	failed := make([]string, 0, len(result.Failures))
	seen := make(map[string]bool, len(result.Failures))
	for _, f := range result.Failures {
		if !seen[f.SellerID] {
			seen[f.SellerID] = true
			failed = append(failed, f.SellerID)
		}
	}
	result.Status = messages.PassStatus(result.Sent, failed)

	metrics.ObservePass(string(trigger), s.now().Sub(result.StartedAt))
	log.Info().
		Str("pass", result.PassID.String()).
		Str("trigger", string(trigger)).
		Int("evaluated", result.Evaluated).
		Int("eligible", result.Eligible).
		Int("sent", result.Sent).
		Int("repaired", result.Repaired).
		Int("failed", len(result.Failures)).
		Msg("evaluation pass completed")

	if s.hub != nil {
		s.hub.Publish(result)
	}
	return result, snap, nil
}

// PurgeOutbox deletes old delivered outbox entries. Called by a background scheduler.
func (s *Service) PurgeOutbox(ctx context.Context, days int) {
	if s.outbox == nil {
		return
	}
	count, err := s.outbox.PurgeSentOlderThan(ctx, days)
	if err != nil {
		log.Error().Err(err).Msg("outbox purge failed")
		return
	}
	log.Info().Int64("deleted", count).Int("older_than_days", days).Msg("outbox purge completed")
}
