// Package domain contains the business logic for the pet marketplace:
// listing pets for sale, withdrawing them, and settling purchases against
// token payments on the ledger.
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

// ListRequest puts a pet up for sale at Price token base units.
type ListRequest struct {
	Owner string
	PetID string
	Price string
}

// DelistRequest withdraws a pet from sale.
type DelistRequest struct {
	Owner string
	PetID string
}

// BuyRequest settles a purchase. TxHash names the token transfer from
// Buyer to the seller covering the asking price.
type BuyRequest struct {
	Buyer  string
	PetID  string
	TxHash string
}
