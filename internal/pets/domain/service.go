package domain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/petmint/petmint/internal/genetics"
	"github.com/petmint/petmint/internal/images"
	"github.com/petmint/petmint/internal/ledger"
	"github.com/petmint/petmint/internal/storage"
	"github.com/petmint/petmint/internal/validation"
)

// Common errors returned by the pet service.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNotFound           = errors.New("pet not found")
	ErrForbidden          = errors.New("pet is owned by another account")
	ErrSamePet            = errors.New("cannot merge a pet with itself")
	ErrMergeExhausted     = errors.New("merge could not produce a new combination")
	ErrPaymentUnverified  = errors.New("mint payment could not be verified")
	ErrTxSpent            = errors.New("payment transaction already used")
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
	ErrConflict           = errors.New("pet was modified concurrently")
	ErrPaymentNotRecorded = errors.New("payment verified but not recorded")
)

// Service defines the pet lifecycle operations.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Pet, error)
	Merge(ctx context.Context, req MergeRequest) (*Pet, error)
	Delete(ctx context.Context, req DeleteRequest) error
	List(ctx context.Context) ([]Pet, error)
	ListByOwner(ctx context.Context, owner string) ([]Pet, error)
	Get(ctx context.Context, id string) (*Pet, error)
}

// PetStore defines the storage operations needed by the pets domain.
type PetStore interface {
	InsertPet(ctx context.Context, pet *storage.Pet) error
	GetPet(ctx context.Context, id string) (*storage.Pet, error)
	ListPets(ctx context.Context, filter storage.PetFilter) ([]storage.Pet, error)
	ReplacePets(ctx context.Context, child *storage.Pet, parentID1, parentID2 string) error
	DeletePet(ctx context.Context, id string) error
	ConsumeTx(ctx context.Context, txHash, action, petID string) error
}

// Renderer produces the pet portrait for a trait triple and color.
type Renderer interface {
	Render(upper, face, down, colorHex string) ([]byte, error)
}

// Ledger defines the node reads needed to verify mint payments.
type Ledger interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// MintPolicy configures mint payment: the token contract whose Transfer
// events count, the treasury that collects fees, and the fee in token base
// units. A nil or zero Price means minting is free and TxHash is ignored.
type MintPolicy struct {
	Token    common.Address
	Treasury common.Address
	Price    *big.Int
}

func (p MintPolicy) free() bool {
	return p.Price == nil || p.Price.Sign() == 0
}

type service struct {
	store    PetStore
	renderer Renderer
	ledger   Ledger
	mint     MintPolicy

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a new pet service. rng drives trait and color draws;
// it is guarded internally, so one source can serve concurrent requests.
func NewService(store PetStore, renderer Renderer, ldg Ledger, mint MintPolicy, rng *rand.Rand) *service {
	return &service{
		store:    store,
		renderer: renderer,
		ledger:   ldg,
		mint:     mint,
		rng:      rng,
	}
}

// Create mints a new pet: a random animal across all three slots and a
// random color. When a mint price is configured the request must carry a
// transaction hash proving a token transfer of at least the price to the
// treasury; the hash is consumed so it cannot pay for a second mint.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Pet, error) {
	if err := validation.ValidateAddress(req.Owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	owner := validation.NormalizeAddress(req.Owner)

	paid := !s.mint.free()
	if paid {
		if err := validation.ValidateTxHash(req.TxHash); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := s.verifyMintPayment(ctx, req.TxHash, owner); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	traits := genetics.RandomTraits(s.rng)
	color := genetics.RandomColor(s.rng)
	s.mu.Unlock()

	pet := &storage.Pet{
		ID:    uuid.New().String(),
		Upper: traits.Upper,
		Face:  traits.Face,
		Down:  traits.Down,
		Color: color,
		Owner: owner,
		Price: "0",
		Image: s.render(traits, color),
	}

	if paid {
		if err := s.store.ConsumeTx(ctx, req.TxHash, "mint", pet.ID); err != nil {
			if errors.Is(err, storage.ErrTxSpent) {
				return nil, ErrTxSpent
			}
			return nil, fmt.Errorf("consuming mint payment: %w", err)
		}
	}

	if err := s.store.InsertPet(ctx, pet); err != nil {
		if paid {
			// The hash is consumed but the pet never landed. Surface a
			// distinct error so the payment can be reconciled by hand.
			return nil, fmt.Errorf("%w: tx %s: %v", ErrPaymentNotRecorded, req.TxHash, err)
		}
		return nil, fmt.Errorf("storing pet: %w", err)
	}
	return toPet(pet), nil
}

func (s *service) verifyMintPayment(ctx context.Context, txHash, owner string) error {
	receipt, err := s.ledger.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: transaction %s not found or not mined", ErrPaymentUnverified, txHash)
		}
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s failed on chain", ErrPaymentUnverified, txHash)
	}
	if !ledger.VerifyTransfer(receipt, s.mint.Token, common.HexToAddress(owner), s.mint.Treasury, s.mint.Price) {
		return fmt.Errorf("%w: no qualifying transfer in transaction %s", ErrPaymentUnverified, txHash)
	}
	return nil
}

// Merge fuses two pets owned by the requester into a hybrid. The child's
// slots are drawn from the parents and never reproduce either parent's full
// triple; its color is the even blend of the parents' colors. Both parents
// are retired in the same transaction that records the child.
func (s *service) Merge(ctx context.Context, req MergeRequest) (*Pet, error) {
	if err := validation.ValidateAddress(req.Owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.FirstID == "" || req.SecondID == "" {
		return nil, fmt.Errorf("%w: both pet ids are required", ErrInvalidRequest)
	}
	if req.FirstID == req.SecondID {
		return nil, ErrSamePet
	}

	first, err := s.ownedPet(ctx, req.FirstID, req.Owner)
	if err != nil {
		return nil, err
	}
	second, err := s.ownedPet(ctx, req.SecondID, req.Owner)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	traits, color, err := genetics.Hybridize(s.rng, parent(first), parent(second))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, genetics.ErrExhausted) {
			return nil, ErrMergeExhausted
		}
		return nil, fmt.Errorf("hybridizing: %w", err)
	}

	child := &storage.Pet{
		ID:    uuid.New().String(),
		Upper: traits.Upper,
		Face:  traits.Face,
		Down:  traits.Down,
		Color: color,
		Owner: validation.NormalizeAddress(req.Owner),
		Price: "0",
		Image: s.render(traits, color),
	}

	if err := s.store.ReplacePets(ctx, child, first.ID, second.ID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("replacing parents: %w", err)
	}
	return toPet(child), nil
}

// Delete retires a pet owned by the requester.
func (s *service) Delete(ctx context.Context, req DeleteRequest) error {
	if err := validation.ValidateAddress(req.Owner); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.PetID == "" {
		return fmt.Errorf("%w: pet id is required", ErrInvalidRequest)
	}

	if _, err := s.ownedPet(ctx, req.PetID, req.Owner); err != nil {
		return err
	}

	if err := s.store.DeletePet(ctx, req.PetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting pet: %w", err)
	}
	return nil
}

// List returns every pet, newest first.
func (s *service) List(ctx context.Context) ([]Pet, error) {
	records, err := s.store.ListPets(ctx, storage.PetFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing pets: %w", err)
	}
	return toPets(records), nil
}

// ListByOwner returns the pets held by one account.
func (s *service) ListByOwner(ctx context.Context, owner string) ([]Pet, error) {
	if err := validation.ValidateAddress(owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	records, err := s.store.ListPets(ctx, storage.PetFilter{
		Owner: validation.NormalizeAddress(owner),
	})
	if err != nil {
		return nil, fmt.Errorf("listing pets: %w", err)
	}
	return toPets(records), nil
}

// Get returns one pet by id.
func (s *service) Get(ctx context.Context, id string) (*Pet, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: pet id is required", ErrInvalidRequest)
	}
	record, err := s.store.GetPet(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading pet: %w", err)
	}
	return toPet(record), nil
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

// render never blocks a mint or merge on a broken asset set: the renderer
// already degrades to a placeholder, and an encoding failure degrades to an
// empty image here.
func (s *service) render(traits genetics.Traits, color string) string {
	png, err := s.renderer.Render(traits.Upper, traits.Face, traits.Down, color)
	if err != nil {
		return ""
	}
	return images.DataURI(png)
}

func parent(p *storage.Pet) genetics.Parent {
	return genetics.Parent{
		Traits: genetics.Traits{Upper: p.Upper, Face: p.Face, Down: p.Down},
		Color:  p.Color,
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
