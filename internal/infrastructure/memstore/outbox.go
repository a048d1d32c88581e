package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"onsalenow.io/analytics/internal/domain"
)

// Outbox implements domain.Outbox in memory.
type Outbox struct {
	mu      sync.Mutex
	entries map[string]*domain.OutboxEntry // sellerID:tier -> entry
	byEvent map[uuid.UUID]*domain.OutboxEntry
	now     func() time.Time
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		entries: make(map[string]*domain.OutboxEntry),
		byEvent: make(map[uuid.UUID]*domain.OutboxEntry),
		now:     time.Now,
	}
}

func outboxKey(sellerID string, tier domain.Tier) string {
	return sellerID + ":" + string(tier)
}

// Claim records intent to notify, honouring an existing unexpired lease.
func (o *Outbox) Claim(_ context.Context, sellerID string, tier domain.Tier, lease time.Duration) (*domain.OutboxEntry, domain.ClaimResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	key := outboxKey(sellerID, tier)
	e, ok := o.entries[key]
	switch {
	case !ok:
		e = &domain.OutboxEntry{SellerID: sellerID, Tier: tier}
		o.entries[key] = e
	case e.Status == domain.OutboxSent:
		c := *e
		return &c, domain.ClaimAlreadySent, nil
	case e.Status == domain.OutboxPending && now.Sub(e.ClaimedAt) < lease:
		c := *e
		return &c, domain.ClaimHeld, nil
	default:
		delete(o.byEvent, e.EventID)
	}

	e.EventID = uuid.New()
	e.Status = domain.OutboxPending
	e.Attempts++
	e.ClaimedAt = now
	o.byEvent[e.EventID] = e
	c := *e
	return &c, domain.ClaimAcquired, nil
}

// MarkSent records delivery.
func (o *Outbox) MarkSent(_ context.Context, eventID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.byEvent[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	now := o.now()
	e.Status = domain.OutboxSent
	e.SentAt = &now
	e.LastError = ""
	return nil
}

// MarkFailed releases the claim.
func (o *Outbox) MarkFailed(_ context.Context, eventID uuid.UUID, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.byEvent[eventID]
	if !ok || e.Status != domain.OutboxPending {
		return domain.ErrNotFound
	}
	e.Status = domain.OutboxFailed
	e.LastError = reason
	return nil
}

// PurgeSentOlderThan drops delivered entries older than days.
func (o *Outbox) PurgeSentOlderThan(_ context.Context, days int) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cutoff := o.now().AddDate(0, 0, -days)
	var n int64
	for key, e := range o.entries {
		if e.Status == domain.OutboxSent && e.SentAt != nil && e.SentAt.Before(cutoff) {
			delete(o.entries, key)
			delete(o.byEvent, e.EventID)
			n++
		}
	}
	return n, nil
}

// Entry returns a copy of the entry for sellerID and tier, if any.
func (o *Outbox) Entry(sellerID string, tier domain.Tier) (domain.OutboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[outboxKey(sellerID, tier)]
	if !ok {
		return domain.OutboxEntry{}, false
	}
	return *e, true
}
