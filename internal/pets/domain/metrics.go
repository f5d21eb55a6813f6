package domain

import (
	"context"
	"errors"

	"github.com/petmint/petmint/internal/observability/metrics"
)

// MetricsMiddleware returns a service middleware that records operation
// counters. Reads are not counted; the HTTP middleware already covers them.
func MetricsMiddleware() func(loggingService) *metricsMiddleware {
	return func(next loggingService) *metricsMiddleware {
		return &metricsMiddleware{next: next}
	}
}

type metricsMiddleware struct {
	next loggingService
}

func (m *metricsMiddleware) Create(ctx context.Context, req CreateRequest) (*Pet, error) {
	pet, err := m.next.Create(ctx, req)
	metrics.PetMinted(statusLabel(err))
	if req.TxHash != "" {
		switch {
		case err == nil:
			metrics.PaymentVerify("mint", "ok")
		case errors.Is(err, ErrPaymentUnverified), errors.Is(err, ErrLedgerUnavailable):
			metrics.PaymentVerify("mint", paymentLabel(err))
		}
	}
	return pet, err
}

func (m *metricsMiddleware) Merge(ctx context.Context, req MergeRequest) (*Pet, error) {
	pet, err := m.next.Merge(ctx, req)
	metrics.PetMerged(statusLabel(err))
	return pet, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, req DeleteRequest) error {
	err := m.next.Delete(ctx, req)
	metrics.PetDeleted(statusLabel(err))
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]Pet, error) {
	return m.next.List(ctx)
}

func (m *metricsMiddleware) ListByOwner(ctx context.Context, owner string) ([]Pet, error) {
	return m.next.ListByOwner(ctx, owner)
}

func (m *metricsMiddleware) Get(ctx context.Context, id string) (*Pet, error) {
	return m.next.Get(ctx, id)
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrSamePet),
		errors.Is(err, ErrMergeExhausted),
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
