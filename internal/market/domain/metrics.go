package domain

import (
	"context"
	"errors"

	"github.com/petmint/petmint/internal/observability/metrics"
)

// MetricsMiddleware returns a service middleware that records operation
// counters.
func MetricsMiddleware() func(loggingService) *metricsMiddleware {
	return func(next loggingService) *metricsMiddleware {
		return &metricsMiddleware{next: next}
	}
}

type metricsMiddleware struct {
	next loggingService
}

func (m *metricsMiddleware) Listings(ctx context.Context) ([]Pet, error) {
	return m.next.Listings(ctx)
}

func (m *metricsMiddleware) List(ctx context.Context, req ListRequest) (*Pet, error) {
	pet, err := m.next.List(ctx, req)
	metrics.MarketListing("list", statusLabel(err))
	return pet, err
}

func (m *metricsMiddleware) Delist(ctx context.Context, req DelistRequest) (*Pet, error) {
	pet, err := m.next.Delist(ctx, req)
	metrics.MarketListing("delist", statusLabel(err))
	return pet, err
}

func (m *metricsMiddleware) Buy(ctx context.Context, req BuyRequest) (*Pet, error) {
	pet, err := m.next.Buy(ctx, req)
	metrics.MarketSale(statusLabel(err))
	switch {
	case err == nil:
		metrics.PaymentVerify("buy", "ok")
	case errors.Is(err, ErrPaymentUnverified), errors.Is(err, ErrLedgerUnavailable):
		metrics.PaymentVerify("buy", paymentLabel(err))
	}
	return pet, err
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotForSale),
		errors.Is(err, ErrSelfPurchase),
		errors.Is(err, ErrTxSpent),
		errors.Is(err, ErrConflict):
		return "rejected"
	case errors.Is(err, ErrPaymentUnverified):
		return "payment_unverified"
	case errors.Is(err, ErrLedgerUnavailable):
		return "ledger_unavailable"
	case errors.Is(err, ErrPaymentNotRecorded):
		return "payment_not_recorded"
	default:
		return "error"
	}
}

func paymentLabel(err error) string {
	switch {
	case errors.Is(err, ErrPaymentUnverified):
		return "unverified"
	case errors.Is(err, ErrLedgerUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
