package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	-- Pets
	CREATE TABLE IF NOT EXISTS pets (
		id TEXT PRIMARY KEY,
		upper_part TEXT NOT NULL,
		face_part TEXT NOT NULL,
		down_part TEXT NOT NULL,
		color TEXT NOT NULL,
		owner TEXT NOT NULL,
		for_sale BOOLEAN NOT NULL DEFAULT FALSE,
		price TEXT NOT NULL DEFAULT '0',
		image TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	-- Consumed payment transaction hashes (replay protection)
	CREATE TABLE IF NOT EXISTS consumed_txs (
		tx_hash TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		pet_id TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets(owner);
	CREATE INDEX IF NOT EXISTS idx_pets_for_sale ON pets(for_sale);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

const pgPetColumns = `id, upper_part, face_part, down_part, color, owner, for_sale, price, image, version, created_at::text`

// InsertPet inserts a new pet record
func (s *PostgresStore) InsertPet(ctx context.Context, pet *Pet) error {
	query := `
		INSERT INTO pets (id, upper_part, face_part, down_part, color, owner, for_sale, price, image, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
	`
	_, err := s.db.ExecContext(ctx, query,
		pet.ID, pet.Upper, pet.Face, pet.Down, pet.Color, pet.Owner, pet.ForSale, pet.Price, pet.Image)
	if err != nil {
		return fmt.Errorf("inserting pet: %w", err)
	}
	pet.Version = 1
	return nil
}

// GetPet retrieves a pet by id
func (s *PostgresStore) GetPet(ctx context.Context, id string) (*Pet, error) {
	query := `SELECT ` + pgPetColumns + ` FROM pets WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanPet(row)
}

// ListPets retrieves pets matching the filter
func (s *PostgresStore) ListPets(ctx context.Context, filter PetFilter) ([]Pet, error) {
	query := `SELECT ` + pgPetColumns + ` FROM pets`
	var conds []string
	var args []any
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		conds = append(conds, fmt.Sprintf("owner = $%d", len(args)))
	}
	if filter.ForSale != nil {
		args = append(args, *filter.ForSale)
		conds = append(conds, fmt.Sprintf("for_sale = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pets: %w", err)
	}
	defer rows.Close()

	var pets []Pet
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.Upper, &p.Face, &p.Down, &p.Color, &p.Owner, &p.ForSale, &p.Price, &p.Image, &p.Version, &p.CreatedAt); err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// UpdateListing sets the sale state of a pet, conditioned on version
func (s *PostgresStore) UpdateListing(ctx context.Context, id string, version int64, forSale bool, price string) error {
	query := `
		UPDATE pets SET for_sale = $1, price = $2, version = version + 1
		WHERE id = $3 AND version = $4
	`
	res, err := s.db.ExecContext(ctx, query, forSale, price, id, version)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}
	return s.checkConditionalWrite(ctx, res, id)
}

// TransferOwner moves a pet to a new owner, clears its sale state, and
// consumes the payment hash, all in one transaction
func (s *PostgresStore) TransferOwner(ctx context.Context, id string, version int64, newOwner, txHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO consumed_txs (tx_hash, action, pet_id) VALUES ($1, 'buy', $2)`,
		txHash, id); err != nil {
		if isUniqueViolation(err) {
			return ErrTxSpent
		}
		return fmt.Errorf("consuming tx hash: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pets SET owner = $1, for_sale = FALSE, price = '0', version = version + 1
		WHERE id = $2 AND version = $3
	`, newOwner, id, version)
	if err != nil {
		return fmt.Errorf("transferring owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	return tx.Commit()
}

// ReplacePets inserts the child and deletes both parents in one transaction
func (s *PostgresStore) ReplacePets(ctx context.Context, child *Pet, parentID1, parentID2 string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pets (id, upper_part, face_part, down_part, color, owner, for_sale, price, image, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
	`, child.ID, child.Upper, child.Face, child.Down, child.Color, child.Owner, child.ForSale, child.Price, child.Image); err != nil {
		return fmt.Errorf("inserting child pet: %w", err)
	}

	for _, parentID := range []string{parentID1, parentID2} {
		res, err := tx.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, parentID)
		if err != nil {
			return fmt.Errorf("deleting parent %s: %w", parentID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	child.Version = 1
	return nil
}

// DeletePet removes a pet permanently
func (s *PostgresStore) DeletePet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting pet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeTx records a payment hash as spent for the given action
func (s *PostgresStore) ConsumeTx(ctx context.Context, txHash, action, petID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consumed_txs (tx_hash, action, pet_id) VALUES ($1, $2, $3)`,
		txHash, action, petID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTxSpent
		}
		return fmt.Errorf("consuming tx hash: %w", err)
	}
	return nil
}

func (s *PostgresStore) checkConditionalWrite(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM pets WHERE id = $1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}
