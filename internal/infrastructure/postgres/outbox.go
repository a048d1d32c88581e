package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"onsalenow.io/analytics/internal/domain"
)

// Outbox is the PostgreSQL implementation of domain.Outbox.
type Outbox struct {
	pool dbtx
}

// NewOutbox creates a new postgres Outbox.
func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

const outboxColumns = `event_id, seller_id, tier, status, attempts, claimed_at, sent_at, last_error`

// Claim inserts or re-claims the (seller, tier) entry in a single statement.
// The conditional DO UPDATE makes concurrent passes race on the row lock,
// so exactly one of them gets a row back.
func (o *Outbox) Claim(ctx context.Context, sellerID string, tier domain.Tier, lease time.Duration) (*domain.OutboxEntry, domain.ClaimResult, error) {
	row := o.pool.QueryRow(ctx, `
		INSERT INTO notice_outbox (event_id, seller_id, tier, status, attempts, claimed_at)
		VALUES ($1, $2, $3, 'pending', 1, NOW())
		ON CONFLICT (seller_id, tier) DO UPDATE
		SET event_id   = EXCLUDED.event_id,
		    status     = 'pending',
		    attempts   = notice_outbox.attempts + 1,
		    claimed_at = NOW(),
		    last_error = NULL
		WHERE notice_outbox.status = 'failed'
		   OR (notice_outbox.status = 'pending' AND notice_outbox.claimed_at < NOW() - make_interval(secs => $4))
		RETURNING `+outboxColumns,
		uuid.New(), sellerID, string(tier), lease.Seconds(),
	)

	e, err := scanOutboxEntry(row)
	if err == nil {
		return e, domain.ClaimAcquired, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ClaimHeld, fmt.Errorf("claim outbox %s/%s: %w", sellerID, tier, err)
	}

	// Conflict without update: someone holds the lease or it was already sent.
	existing, err := scanOutboxEntry(o.pool.QueryRow(ctx,
		`SELECT `+outboxColumns+` FROM notice_outbox WHERE seller_id = $1 AND tier = $2`,
		sellerID, string(tier)))
	if err != nil {
		return nil, domain.ClaimHeld, fmt.Errorf("load outbox %s/%s: %w", sellerID, tier, err)
	}
	return existing, unclaimedResult(existing), nil
}

// unclaimedResult classifies an entry the conditional upsert left alone.
func unclaimedResult(e *domain.OutboxEntry) domain.ClaimResult {
	if e.Status == domain.OutboxSent {
		return domain.ClaimAlreadySent
	}
	return domain.ClaimHeld
}

// MarkSent records delivery for the claim identified by eventID.
func (o *Outbox) MarkSent(ctx context.Context, eventID uuid.UUID) error {
	tag, err := o.pool.Exec(ctx, `
		UPDATE notice_outbox SET status = 'sent', sent_at = NOW(), last_error = NULL
		WHERE event_id = $1
	`, eventID)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailed releases the claim so the next pass can retry.
func (o *Outbox) MarkFailed(ctx context.Context, eventID uuid.UUID, reason string) error {
	tag, err := o.pool.Exec(ctx, `
		UPDATE notice_outbox SET status = 'failed', last_error = $2
		WHERE event_id = $1 AND status = 'pending'
	`, eventID, reason)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PurgeSentOlderThan deletes delivered entries older than the given number of days.
func (o *Outbox) PurgeSentOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := o.pool.Exec(ctx,
		`DELETE FROM notice_outbox WHERE status = 'sent' AND sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOutboxEntry(row scannable) (*domain.OutboxEntry, error) {
	var e domain.OutboxEntry
	var tier, status string
	var lastError *string

	err := row.Scan(&e.EventID, &e.SellerID, &tier, &status, &e.Attempts, &e.ClaimedAt, &e.SentAt, &lastError)
	if err != nil {
		return nil, err
	}
	e.Tier = domain.Tier(tier)
	e.Status = domain.OutboxStatus(status)
	if lastError != nil {
		e.LastError = *lastError
	}
	return &e, nil
}
