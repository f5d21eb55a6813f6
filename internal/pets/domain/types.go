// Package domain contains the business logic for the pet lifecycle:
// minting, merging and retiring pets.
package domain

// Pet is the domain view of a pet record.
type Pet struct {
	ID        string
	Upper     string
	Face      string
	Down      string
	Color     string
	Owner     string
	ForSale   bool
	Price     string
	Image     string
	CreatedAt string
}

// CreateRequest mints a new pet for Owner. TxHash optionally names the
// token transfer paying the mint fee; it is required whenever a non-zero
// mint price is configured.
type CreateRequest struct {
	Owner  string
	TxHash string
}

// MergeRequest fuses two pets owned by Owner into one hybrid.
type MergeRequest struct {
	Owner    string
	FirstID  string
	SecondID string
}

// DeleteRequest retires a pet owned by Owner.
type DeleteRequest struct {
	Owner string
	PetID string
}
