package domain

import (
	"context"
	"log/slog"
	"time"
)

// loggingService is the interface required for logging middleware.
type loggingService interface {
	Listings(ctx context.Context) ([]Pet, error)
	List(ctx context.Context, req ListRequest) (*Pet, error)
	Delist(ctx context.Context, req DelistRequest) (*Pet, error)
	Buy(ctx context.Context, req BuyRequest) (*Pet, error)
}

// LoggingMiddleware returns a service middleware that logs all operations.
func LoggingMiddleware(logger *slog.Logger) func(loggingService) *loggingMiddleware {
	return func(next loggingService) *loggingMiddleware {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   loggingService
	logger *slog.Logger
}

func (m *loggingMiddleware) Listings(ctx context.Context) ([]Pet, error) {
	start := time.Now()
	pets, err := m.next.Listings(ctx)
	m.logger.Debug("Listings",
		"count", len(pets),
		"duration", time.Since(start),
		"error", err,
	)
	return pets, err
}

func (m *loggingMiddleware) List(ctx context.Context, req ListRequest) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.List(ctx, req)
	m.logger.Info("List",
		"owner", req.Owner,
		"pet", req.PetID,
		"price", req.Price,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}

func (m *loggingMiddleware) Delist(ctx context.Context, req DelistRequest) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.Delist(ctx, req)
	m.logger.Info("Delist",
		"owner", req.Owner,
		"pet", req.PetID,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}

func (m *loggingMiddleware) Buy(ctx context.Context, req BuyRequest) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.Buy(ctx, req)
	m.logger.Info("Buy",
		"buyer", req.Buyer,
		"pet", req.PetID,
		"txHash", req.TxHash,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}
