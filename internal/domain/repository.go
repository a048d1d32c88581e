package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Collections used by the analytics service.
const (
	CollectionSellers               = "Seller"
	CollectionProducts              = "products"
	CollectionOrders                = "orders"
	CollectionBrandSubscriptions    = "brandSubscriptions"
	CollectionCategorySubscriptions = "categorySubscriptions"
)

// ErrNotFound is returned when a document or outbox entry does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the port for the shared document store.
// Implementations live in infrastructure/postgres and infrastructure/memstore.
type Store interface {
	// Read fetches one document. Returns ErrNotFound when absent.
	Read(ctx context.Context, collection, id string) (Record, error)

	// ReadAll returns every document of a collection keyed by id.
	ReadAll(ctx context.Context, collection string) (map[string]Record, error)

	// Write overwrites the whole document. A nil record deletes it.
	Write(ctx context.Context, collection, id string, record Record) error

	// QueryEqual returns documents (keyed by id) whose field equals value.
	QueryEqual(ctx context.Context, collection, field string, value any) (map[string]Record, error)

	// SetFlag atomically sets a single boolean field to true without touching
	// sibling fields. Returns ErrNotFound when the document does not exist.
	SetFlag(ctx context.Context, collection, id, field string) error

	// SetFields merges fields into an existing document, leaving every other
	// field as stored. Returns ErrNotFound when the document does not exist.
	SetFields(ctx context.Context, collection, id string, fields Record) error
}

// OutboxStatus is the lifecycle state of an intent-to-notify entry.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEntry records the intent to send one tier notice to one seller.
type OutboxEntry struct {
	EventID   uuid.UUID    `json:"eventId"`
	SellerID  string       `json:"sellerId"`
	Tier      Tier         `json:"tier"`
	Status    OutboxStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	ClaimedAt time.Time    `json:"claimedAt"`
	SentAt    *time.Time   `json:"sentAt,omitempty"`
	LastError string       `json:"lastError,omitempty"`
}

// ClaimResult describes what Claim decided.
type ClaimResult int

const (
	// ClaimAcquired means the caller owns the entry and must send.
	ClaimAcquired ClaimResult = iota
	// ClaimAlreadySent means the notice was delivered earlier; only the flag may be missing.
	ClaimAlreadySent
	// ClaimHeld means another pass holds an unexpired lease on the entry.
	ClaimHeld
)

// Outbox defines the port for durable notice intents.
type Outbox interface {
	// Claim records intent to notify. A failed entry or a pending entry whose
	// lease is older than lease can be re-claimed.
	Claim(ctx context.Context, sellerID string, tier Tier, lease time.Duration) (*OutboxEntry, ClaimResult, error)

	// MarkSent records successful delivery.
	MarkSent(ctx context.Context, eventID uuid.UUID) error

	// MarkFailed releases the claim so the next pass may retry.
	MarkFailed(ctx context.Context, eventID uuid.UUID, reason string) error

	// PurgeSentOlderThan deletes delivered entries older than the given number of days.
	PurgeSentOlderThan(ctx context.Context, days int) (int64, error)
}
