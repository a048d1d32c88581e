package application

import (
	"context"

	"onsalenow.io/analytics/internal/domain"
)

// Notifier delivers one email. Failure is reported as false, never as an error.
// The default implementation posts to the email HTTP service.
type Notifier interface {
	Send(ctx context.Context, address, subject, body string) bool
}

// Recommender fetches product recommendations for the storefront.
type Recommender interface {
	// Home returns topN products for the home page.
	Home(ctx context.Context, topN int) ([]domain.ProductSummary, error)

	// ForYou returns products matching subscribed brands or categories.
	ForYou(ctx context.Context, brands, categories []string, topN int) ([]domain.ProductSummary, error)
}

// PassLocker grants a cross-process lease on evaluation passes.
// A nil PassLocker means single-instance deployment.
type PassLocker interface {
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// StatusHub is the interface for broadcasting pass outcomes to connected admins.
// Implementation lives in transport/http/sse_hub.go.
type StatusHub interface {
	Publish(result *PassResult)
}
