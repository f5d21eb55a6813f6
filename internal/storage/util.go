package storage

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reports whether err is a unique-constraint failure from
// either backend. Postgres reports SQLSTATE 23505; modernc sqlite only
// exposes the constraint failure through the error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// scanner matches both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPet scans one pet row in column order.
func scanPet(row scanner) (*Pet, error) {
	var p Pet
	err := row.Scan(&p.ID, &p.Upper, &p.Face, &p.Down, &p.Color, &p.Owner, &p.ForSale, &p.Price, &p.Image, &p.Version, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
