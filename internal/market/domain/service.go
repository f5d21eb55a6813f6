package domain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/petmint/petmint/internal/ledger"
	"github.com/petmint/petmint/internal/storage"
	"github.com/petmint/petmint/internal/validation"
)

// Common errors returned by the market service.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrNotFound           = errors.New("pet not found")
	ErrForbidden          = errors.New("pet is owned by another account")
	ErrNotForSale         = errors.New("pet is not for sale")
	ErrSelfPurchase       = errors.New("cannot buy your own pet")
	ErrPaymentUnverified  = errors.New("payment could not be verified")
	ErrTxSpent            = errors.New("payment transaction already used")
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
	ErrConflict           = errors.New("pet was modified concurrently")
	ErrPaymentNotRecorded = errors.New("payment verified but not recorded")
)

// Service defines the marketplace operations.
type Service interface {
	Listings(ctx context.Context) ([]Pet, error)
	List(ctx context.Context, req ListRequest) (*Pet, error)
	Delist(ctx context.Context, req DelistRequest) (*Pet, error)
	Buy(ctx context.Context, req BuyRequest) (*Pet, error)
}

// PetStore defines the storage operations needed by the market domain.
type PetStore interface {
	GetPet(ctx context.Context, id string) (*storage.Pet, error)
	ListPets(ctx context.Context, filter storage.PetFilter) ([]storage.Pet, error)
	UpdateListing(ctx context.Context, id string, version int64, forSale bool, price string) error
	TransferOwner(ctx context.Context, id string, version int64, newOwner, txHash string) error
}

// Ledger defines the node reads needed to settle purchases.
type Ledger interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type service struct {
	store  PetStore
	ledger Ledger
	token  common.Address
}

// NewService creates a new market service. token is the contract whose
// Transfer events count as payment.
func NewService(store PetStore, ldg Ledger, token common.Address) *service {
	return &service{
		store:  store,
		ledger: ldg,
		token:  token,
	}
}

// Listings returns every pet currently for sale.
func (s *service) Listings(ctx context.Context) ([]Pet, error) {
	forSale := true
	records, err := s.store.ListPets(ctx, storage.PetFilter{ForSale: &forSale})
	if err != nil {
		return nil, fmt.Errorf("listing market: %w", err)
	}
	return toPets(records), nil
}

// List puts a pet up for sale. Relisting an already-listed pet updates its
// price.
func (s *service) List(ctx context.Context, req ListRequest) (*Pet, error) {
	if err := validation.ValidateAddress(req.Owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.PetID == "" {
		return nil, fmt.Errorf("%w: pet id is required", ErrInvalidRequest)
	}
	price, err := validation.ParsePrice(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}

	pet, err := s.ownedPet(ctx, req.PetID, req.Owner)
	if err != nil {
		return nil, err
	}

	if err := s.updateListing(ctx, pet, true, price.String()); err != nil {
		return nil, err
	}
	return toPet(pet), nil
}

// Delist withdraws a pet from sale and resets its price to zero.
func (s *service) Delist(ctx context.Context, req DelistRequest) (*Pet, error) {
	if err := validation.ValidateAddress(req.Owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.PetID == "" {
		return nil, fmt.Errorf("%w: pet id is required", ErrInvalidRequest)
	}

	pet, err := s.ownedPet(ctx, req.PetID, req.Owner)
	if err != nil {
		return nil, err
	}
	if !pet.ForSale {
		return nil, ErrNotForSale
	}

	if err := s.updateListing(ctx, pet, false, "0"); err != nil {
		return nil, err
	}
	return toPet(pet), nil
}

// Buy settles a purchase. The pet must be for sale and the transaction must
// carry a token transfer from the buyer to the seller of at least the asking
// price. On success the pet moves to the buyer and leaves the market; the
// transaction hash is consumed so it cannot settle a second purchase.
func (s *service) Buy(ctx context.Context, req BuyRequest) (*Pet, error) {
	if err := validation.ValidateAddress(req.Buyer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.PetID == "" {
		return nil, fmt.Errorf("%w: pet id is required", ErrInvalidRequest)
	}
	if err := validation.ValidateTxHash(req.TxHash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	buyer := validation.NormalizeAddress(req.Buyer)

	pet, err := s.store.GetPet(ctx, req.PetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading pet %s: %w", req.PetID, err)
	}

	// Preconditions come before any ledger traffic.
	if !pet.ForSale {
		return nil, ErrNotForSale
	}
	if validation.SameAddress(buyer, pet.Owner) {
		return nil, ErrSelfPurchase
	}
	price, err := validation.ParsePrice(pet.Price)
	if err != nil {
		return nil, fmt.Errorf("listed price %q is corrupt: %w", pet.Price, err)
	}

	if err := s.verifyPayment(ctx, req.TxHash, buyer, pet.Owner, price); err != nil {
		return nil, err
	}

	if err := s.store.TransferOwner(ctx, pet.ID, pet.Version, buyer, req.TxHash); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, storage.ErrTxSpent):
			return nil, ErrTxSpent
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrConflict
		default:
			// Payment checked out but the transfer never landed. Surface a
			// distinct error so the payment can be reconciled by hand.
			return nil, fmt.Errorf("%w: tx %s: %v", ErrPaymentNotRecorded, req.TxHash, err)
		}
	}

	pet.Owner = buyer
	pet.ForSale = false
	pet.Price = "0"
	return toPet(pet), nil
}

func (s *service) verifyPayment(ctx context.Context, txHash, buyer, seller string, price *big.Int) error {
	hash := common.HexToHash(txHash)

	if _, err := s.ledger.TransactionByHash(ctx, hash); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: transaction %s not found", ErrPaymentUnverified, txHash)
		}
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	receipt, err := s.ledger.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: transaction %s not mined", ErrPaymentUnverified, txHash)
		}
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s failed on chain", ErrPaymentUnverified, txHash)
	}

	if !ledger.VerifyTransfer(receipt, s.token, common.HexToAddress(buyer), common.HexToAddress(seller), price) {
		return fmt.Errorf("%w: no qualifying transfer in transaction %s", ErrPaymentUnverified, txHash)
	}
	return nil
}

func (s *service) ownedPet(ctx context.Context, id, owner string) (*storage.Pet, error) {
	pet, err := s.store.GetPet(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading pet %s: %w", id, err)
	}
	if !validation.SameAddress(pet.Owner, owner) {
		return nil, ErrForbidden
	}
	return pet, nil
}

// updateListing applies the sale state conditioned on the version the pet
// was read at, then mirrors the change onto the in-memory record.
func (s *service) updateListing(ctx context.Context, pet *storage.Pet, forSale bool, price string) error {
	err := s.store.UpdateListing(ctx, pet.ID, pet.Version, forSale, price)
	switch {
	case err == nil:
		pet.ForSale = forSale
		pet.Price = price
		pet.Version++
		return nil
	case errors.Is(err, storage.ErrConflict):
		return ErrConflict
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("updating listing: %w", err)
	}
}

func toPet(p *storage.Pet) *Pet {
	return &Pet{
		ID:        p.ID,
		Upper:     p.Upper,
		Face:      p.Face,
		Down:      p.Down,
		Color:     p.Color,
		Owner:     p.Owner,
		ForSale:   p.ForSale,
		Price:     p.Price,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
	}
}

func toPets(records []storage.Pet) []Pet {
	pets := make([]Pet, 0, len(records))
	for i := range records {
		pets = append(pets, *toPet(&records[i]))
	}
	return pets
}
