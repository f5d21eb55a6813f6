// Package validation provides input validation for petmint.
package validation

import (
	"errors"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction hash: 0x followed by 64 hex chars
var txHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Hex color: #rrggbb
var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateAddress validates a blockchain account address.
func ValidateAddress(addr string) error {
	if addr == "" {
		return errors.New("address cannot be empty")
	}
	if !common.IsHexAddress(addr) {
		return errors.New("invalid address: must be a 0x-prefixed 20-byte hex string")
	}
	return nil
}

// NormalizeAddress lowercases an address so that owner comparisons and
// storage lookups are case-insensitive. Callers must validate first.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// SameAddress reports whether two addresses refer to the same account,
// ignoring checksum casing.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// ValidateTxHash validates a transaction hash.
func ValidateTxHash(hash string) error {
	if hash == "" {
		return errors.New("transaction hash cannot be empty")
	}
	if !txHashRegex.MatchString(hash) {
		return errors.New("invalid transaction hash: must be a 0x-prefixed 32-byte hex string")
	}
	return nil
}

// ParseAmount parses a token amount given in base units. Amounts are decimal
// integer strings; fractional or float forms are rejected outright so that
// payment comparisons never go through floating point.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("amount cannot be empty")
	}
	if strings.ContainsAny(s, ".eE+-") {
		return nil, errors.New("amount must be a non-negative integer in base units")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("amount must be a decimal integer")
	}
	if amount.Sign() < 0 {
		return nil, errors.New("amount cannot be negative")
	}
	return amount, nil
}

// ParsePrice parses a listing price, which additionally must be positive.
func ParsePrice(s string) (*big.Int, error) {
	amount, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, errors.New("price must be greater than zero")
	}
	return amount, nil
}

// ValidateHexColor validates a #rrggbb color string.
func ValidateHexColor(s string) error {
	if !hexColorRegex.MatchString(s) {
		return errors.New("invalid color: must be in #rrggbb form")
	}
	return nil
}
