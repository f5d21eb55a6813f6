// Package storage persists pet records. Mutations are guarded by an
// optimistic version column: every conditional update names the version it
// read, and a mismatch reports ErrConflict without touching the row.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petmint/petmint/internal/config"
)

// Pet is the sole persisted entity.
type Pet struct {
	ID      string
	Upper   string
	Face    string
	Down    string
	Color   string // #rrggbb
	Owner   string // account address, stored lowercase
	ForSale bool
	Price   string // token base units, decimal string; "0" unless ForSale
	Image   string // rendered PNG as a data URI
	Version int64  // optimistic concurrency token, bumped on every mutation
	CreatedAt string
}

// PetFilter narrows ListPets. Zero values mean "any".
type PetFilter struct {
	Owner   string
	ForSale *bool
}

// PetStore handles pet record operations.
type PetStore interface {
	InsertPet(ctx context.Context, pet *Pet) error
	GetPet(ctx context.Context, id string) (*Pet, error)
	ListPets(ctx context.Context, filter PetFilter) ([]Pet, error)

	// UpdateListing sets the sale state of a pet, conditioned on version.
	UpdateListing(ctx context.Context, id string, version int64, forSale bool, price string) error

	// TransferOwner moves a pet to a new owner and clears its sale state,
	// conditioned on version, while consuming txHash for replay protection.
	// Both happen in one database transaction.
	TransferOwner(ctx context.Context, id string, version int64, newOwner, txHash string) error

	// ReplacePets inserts the child and deletes both parents in one database
	// transaction, insert first so a crash can never lose all three records.
	ReplacePets(ctx context.Context, child *Pet, parentID1, parentID2 string) error

	DeletePet(ctx context.Context, id string) error

	// ConsumeTx records a payment transaction hash as spent for the given
	// action. A hash already consumed reports ErrTxSpent.
	ConsumeTx(ctx context.Context, txHash, action, petID string) error
}

// Store combines the pet store with lifecycle methods. Domain services
// define their own minimal interfaces based on their actual usage.
type Store interface {
	PetStore

	Close() error
	Migrate(ctx context.Context) error
}

// New creates a new store based on configuration.
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
