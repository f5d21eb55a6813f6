package storage

import "errors"

// Common storage errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("record changed since read")
	ErrTxSpent  = errors.New("transaction hash already consumed")
)
