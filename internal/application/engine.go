package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/messages"
	"onsalenow.io/analytics/internal/metrics"
)

// outcome is the result of one seller's notice sequence.
type outcome struct {
	event    domain.NotificationEvent
	sent     bool
	repaired bool
	held     bool
	failures []SellerFailure
}

// evaluate decides at most one notice per seller and runs the qualifying
// sequences concurrently. Errors never escape a seller's sequence.
func (s *Service) evaluate(ctx context.Context, result *PassResult, snap *snapshot) {
	sellers := make(map[string]domain.Seller, len(snap.sellers))
	for _, sl := range snap.sellers {
		sellers[sl.ID] = sl
	}

	var events []domain.NotificationEvent
	for _, st := range snap.stats {
		result.Evaluated++
		seller := sellers[st.SellerID]

		tier, ok := domain.DecideTier(seller, st.PercentSold)
		if !ok {
			continue
		}
		if seller.Email == "" {
			result.SkippedNoEmail++
			log.Warn().Str("seller", seller.ID).Str("tier", string(tier)).Msg("seller has no email, notice skipped")
			continue
		}
		result.Eligible++
		events = append(events, composeNotice(seller, st.PercentSold, tier))
	}

	outcomes := make([]outcome, len(events))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, ev := range events {
		i, ev := i, ev
		g.Go(func() error {
			if s.opts.OutboxEnabled {
				outcomes[i] = s.notifyWithOutbox(ctx, ev)
			} else {
				outcomes[i] = s.notify(ctx, ev)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Notices = make([]domain.NotificationEvent, 0, len(outcomes))
	result.Failures = []SellerFailure{}
	for _, o := range outcomes {
		if o.sent {
			result.Sent++
			result.Notices = append(result.Notices, o.event)
		}
		if o.repaired {
			result.Repaired++
		}
		if o.held {
			result.Held++
		}
		result.Failures = append(result.Failures, o.failures...)
	}
}

// composeNotice builds the tier-specific subject and message.
func composeNotice(seller domain.Seller, percentSold float64, tier domain.Tier) domain.NotificationEvent {
	var subject, body string
	switch tier {
	case domain.TierSeventy:
		subject, body = messages.SeventyPercentNotice(seller.DisplayName(), percentSold)
	case domain.TierFifty:
		subject, body = messages.FiftyPercentNotice(seller.DisplayName(), percentSold)
	}
	return domain.NotificationEvent{
		SellerID:    seller.ID,
		Email:       seller.Email,
		PercentSold: percentSold,
		Tier:        tier,
		Subject:     subject,
		Message:     body,
	}
}

// notify is the plain sequence: send, then set the flag only on success.
// A lost flag write means the next pass sends again.
func (s *Service) notify(ctx context.Context, ev domain.NotificationEvent) outcome {
	o := outcome{event: ev}
	if !s.send(ctx, ev) {
		o.failures = append(o.failures, failure(ev, StageSend, errors.New("email service rejected or unreachable")))
		return o
	}
	o.sent = true

	if err := s.persistFlag(ctx, ev); err != nil {
		o.failures = append(o.failures, failure(ev, StageFlag, err))
	}
	return o
}

// notifyWithOutbox records intent before sending so a lost flag write is
// repaired on the next pass instead of re-sending.
func (s *Service) notifyWithOutbox(ctx context.Context, ev domain.NotificationEvent) outcome {
	o := outcome{event: ev}

	entry, claim, err := s.outbox.Claim(ctx, ev.SellerID, ev.Tier, s.opts.ClaimLease)
	if err != nil {
		metrics.NoticeFailures.WithLabelValues(StageClaim).Inc()
		log.Error().Err(err).Str("seller", ev.SellerID).Str("tier", string(ev.Tier)).Msg("outbox claim failed, seller skipped")
		o.failures = append(o.failures, failure(ev, StageClaim, err))
		return o
	}

	switch claim {
	case domain.ClaimAlreadySent:
		if err := s.persistFlag(ctx, ev); err != nil {
			o.failures = append(o.failures, failure(ev, StageFlag, err))
			return o
		}
		metrics.FlagRepairs.Inc()
		log.Info().Str("seller", ev.SellerID).Str("tier", string(ev.Tier)).Msg("notice already delivered, flag repaired")
		o.repaired = true
		return o

	case domain.ClaimHeld:
		log.Debug().Str("seller", ev.SellerID).Str("tier", string(ev.Tier)).Msg("notice claimed by another pass, skipping")
		o.held = true
		return o
	}

	if !s.send(ctx, ev) {
		if err := s.outbox.MarkFailed(ctx, entry.EventID, "email service rejected or unreachable"); err != nil {
			// The lease expires on its own; the next pass after it can retry.
			log.Warn().Err(err).Str("seller", ev.SellerID).Msg("failed to release outbox claim")
		}
		o.failures = append(o.failures, failure(ev, StageSend, errors.New("email service rejected or unreachable")))
		return o
	}
	o.sent = true

	if err := s.outbox.MarkSent(ctx, entry.EventID); err != nil {
		metrics.NoticeFailures.WithLabelValues(StageOutbox).Inc()
		log.Warn().Err(err).Str("seller", ev.SellerID).Str("event", entry.EventID.String()).Msg("notice sent but outbox not updated")
		o.failures = append(o.failures, failure(ev, StageOutbox, err))
	}
	if err := s.persistFlag(ctx, ev); err != nil {
		o.failures = append(o.failures, failure(ev, StageFlag, err))
	}
	return o
}

func (s *Service) send(ctx context.Context, ev domain.NotificationEvent) bool {
	if !s.notifier.Send(ctx, ev.Email, ev.Subject, ev.Message) {
		metrics.NoticeFailures.WithLabelValues(StageSend).Inc()
		log.Warn().Str("seller", ev.SellerID).Str("tier", string(ev.Tier)).Msg("notice send failed, seller stays eligible")
		return false
	}
	metrics.NoticesSent.WithLabelValues(string(ev.Tier)).Inc()
	log.Info().
		Str("seller", ev.SellerID).
		Str("email", ev.Email).
		Str("tier", string(ev.Tier)).
		Float64("percent_sold", ev.PercentSold).
		Msg("threshold notice sent")
	return true
}

// persistFlag sets only the fired tier's flag; sibling fields are untouched.
func (s *Service) persistFlag(ctx context.Context, ev domain.NotificationEvent) error {
	err := s.store.SetFlag(ctx, domain.CollectionSellers, ev.SellerID, ev.Tier.FlagField())
	if err != nil {
		metrics.NoticeFailures.WithLabelValues(StageFlag).Inc()
		log.Warn().Err(err).Str("seller", ev.SellerID).Str("tier", string(ev.Tier)).Msg("notice sent but flag not persisted")
		return fmt.Errorf("persist %s: %w", ev.Tier.FlagField(), err)
	}
	return nil
}

func failure(ev domain.NotificationEvent, stage string, err error) SellerFailure {
	return SellerFailure{SellerID: ev.SellerID, Tier: ev.Tier, Stage: stage, Error: err.Error()}
}
