package domain

import (
	"context"
	"log/slog"
	"time"
)

// loggingService is the interface required for logging middleware.
type loggingService interface {
	Create(ctx context.Context, req CreateRequest) (*Pet, error)
	Merge(ctx context.Context, req MergeRequest) (*Pet, error)
	Delete(ctx context.Context, req DeleteRequest) error
	List(ctx context.Context) ([]Pet, error)
	ListByOwner(ctx context.Context, owner string) ([]Pet, error)
	Get(ctx context.Context, id string) (*Pet, error)
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

func (m *loggingMiddleware) Create(ctx context.Context, req CreateRequest) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.Create(ctx, req)
	m.logger.Info("Create",
		"owner", req.Owner,
		"txHash", req.TxHash,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}

func (m *loggingMiddleware) Merge(ctx context.Context, req MergeRequest) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.Merge(ctx, req)
	m.logger.Info("Merge",
		"owner", req.Owner,
		"first", req.FirstID,
		"second", req.SecondID,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, req DeleteRequest) error {
	start := time.Now()
	err := m.next.Delete(ctx, req)
	m.logger.Info("Delete",
		"owner", req.Owner,
		"pet", req.PetID,
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]Pet, error) {
	start := time.Now()
	pets, err := m.next.List(ctx)
	m.logger.Debug("List",
		"count", len(pets),
		"duration", time.Since(start),
		"error", err,
	)
	return pets, err
}

func (m *loggingMiddleware) ListByOwner(ctx context.Context, owner string) ([]Pet, error) {
	start := time.Now()
	pets, err := m.next.ListByOwner(ctx, owner)
	m.logger.Debug("ListByOwner",
		"owner", owner,
		"count", len(pets),
		"duration", time.Since(start),
		"error", err,
	)
	return pets, err
}

func (m *loggingMiddleware) Get(ctx context.Context, id string) (*Pet, error) {
	start := time.Now()
	pet, err := m.next.Get(ctx, id)
	m.logger.Debug("Get",
		"id", id,
		"duration", time.Since(start),
		"error", err,
	)
	return pet, err
}
