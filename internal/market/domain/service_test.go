package domain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petmint/petmint/internal/ledger"
	"github.com/petmint/petmint/internal/storage"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000c0a17")

	seller = "0xAAaa000000000000000000000000000000000001"
	buyer  = "0xbBbb000000000000000000000000000000000002"

	buyTx = "0xcd34ef56ab78cd90ef12ab34cd56ef78ab90cd12ef34ab56cd78ef90ab12ab34"
)

// mockStore implements PetStore for testing
type mockStore struct {
	pets        map[string]*storage.Pet
	consumed    map[string]string
	transferErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		pets:     make(map[string]*storage.Pet),
		consumed: make(map[string]string),
	}
}

func (m *mockStore) GetPet(ctx context.Context, id string) (*storage.Pet, error) {
	if pet, ok := m.pets[id]; ok {
		p := *pet
		return &p, nil
	}
	return nil, storage.ErrNotFound
}

func (m *mockStore) ListPets(ctx context.Context, filter storage.PetFilter) ([]storage.Pet, error) {
	var pets []storage.Pet
	for _, pet := range m.pets {
		if filter.Owner != "" && pet.Owner != filter.Owner {
			continue
		}
		if filter.ForSale != nil && pet.ForSale != *filter.ForSale {
			continue
		}
		pets = append(pets, *pet)
	}
	return pets, nil
}

func (m *mockStore) UpdateListing(ctx context.Context, id string, version int64, forSale bool, price string) error {
	pet, ok := m.pets[id]
	if !ok {
		return storage.ErrNotFound
	}
	if pet.Version != version {
		return storage.ErrConflict
	}
	pet.ForSale = forSale
	pet.Price = price
	pet.Version++
	return nil
}

func (m *mockStore) TransferOwner(ctx context.Context, id string, version int64, newOwner, txHash string) error {
	if m.transferErr != nil {
		return m.transferErr
	}
	if _, spent := m.consumed[txHash]; spent {
		return storage.ErrTxSpent
	}
	pet, ok := m.pets[id]
	if !ok {
		return storage.ErrNotFound
	}
	if pet.Version != version {
		return storage.ErrConflict
	}
	m.consumed[txHash] = "buy"
	pet.Owner = newOwner
	pet.ForSale = false
	pet.Price = "0"
	pet.Version++
	return nil
}

// mockLedger counts calls so tests can assert preconditions short-circuit
// before any node traffic.
type mockLedger struct {
	receipt      *types.Receipt
	txErr        error
	receiptErr   error
	txCalls      int
	receiptCalls int
}

func (m *mockLedger) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	m.txCalls++
	if m.txErr != nil {
		return nil, m.txErr
	}
	return types.NewTx(&types.LegacyTx{}), nil
}

func (m *mockLedger) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	m.receiptCalls++
	if m.receiptErr != nil {
		return nil, m.receiptErr
	}
	return m.receipt, nil
}

func transferReceipt(from, to common.Address, amount int64) *types.Receipt {
	sig := crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{{
			Address: tokenAddr,
			Topics: []common.Hash{
				sig,
				common.BytesToHash(common.LeftPadBytes(from.Bytes(), 32)),
				common.BytesToHash(common.LeftPadBytes(to.Bytes(), 32)),
			},
			Data: common.BigToHash(big.NewInt(amount)).Bytes(),
		}},
	}
}

func seedPet(store *mockStore, id, owner string, forSale bool, price string) *storage.Pet {
	pet := &storage.Pet{
		ID:      id,
		Upper:   "lion",
		Face:    "lion",
		Down:    "lion",
		Color:   "#ff0000",
		Owner:   strings.ToLower(owner),
		ForSale: forSale,
		Price:   price,
		Version: 1,
	}
	store.pets[id] = pet
	return pet
}

func goodPayment() *mockLedger {
	return &mockLedger{receipt: transferReceipt(common.HexToAddress(buyer), common.HexToAddress(seller), 10)}
}

func TestListings(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)

	seedPet(store, "p1", seller, true, "10")
	seedPet(store, "p2", seller, false, "0")

	pets, err := svc.Listings(context.Background())
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "p1", pets[0].ID)
}

func TestList(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, false, "0")

	pet, err := svc.List(context.Background(), ListRequest{Owner: seller, PetID: "p1", Price: "10"})
	require.NoError(t, err)
	assert.True(t, pet.ForSale)
	assert.Equal(t, "10", pet.Price)
	assert.True(t, store.pets["p1"].ForSale)
}

func TestListUpdatesPrice(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	pet, err := svc.List(context.Background(), ListRequest{Owner: seller, PetID: "p1", Price: "25"})
	require.NoError(t, err)
	assert.Equal(t, "25", pet.Price)
}

func TestListInvalidPrice(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, false, "0")

	for _, price := range []string{"", "0", "-5", "1.5", "1e18", "ten"} {
		_, err := svc.List(context.Background(), ListRequest{Owner: seller, PetID: "p1", Price: price})
		assert.ErrorIs(t, err, ErrInvalidPrice, "price %q", price)
	}
	assert.False(t, store.pets["p1"].ForSale)
}

func TestListForeignPet(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, false, "0")

	_, err := svc.List(context.Background(), ListRequest{Owner: buyer, PetID: "p1", Price: "10"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListNotFound(t *testing.T) {
	svc := NewService(newMockStore(), &mockLedger{}, tokenAddr)

	_, err := svc.List(context.Background(), ListRequest{Owner: seller, PetID: "missing", Price: "10"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelist(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	pet, err := svc.Delist(context.Background(), DelistRequest{Owner: seller, PetID: "p1"})
	require.NoError(t, err)
	assert.False(t, pet.ForSale)
	assert.Equal(t, "0", pet.Price, "withdrawing resets the price")
}

func TestDelistNotForSale(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{}, tokenAddr)
	seedPet(store, "p1", seller, false, "0")

	_, err := svc.Delist(context.Background(), DelistRequest{Owner: seller, PetID: "p1"})
	assert.ErrorIs(t, err, ErrNotForSale)
}

func TestBuy(t *testing.T) {
	store := newMockStore()
	ldg := goodPayment()
	svc := NewService(store, ldg, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	pet, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	require.NoError(t, err)

	assert.Equal(t, strings.ToLower(buyer), pet.Owner)
	assert.False(t, pet.ForSale)
	assert.Equal(t, "0", pet.Price)
	assert.Equal(t, "buy", store.consumed[buyTx])
	assert.Equal(t, 1, ldg.txCalls)
	assert.Equal(t, 1, ldg.receiptCalls)
}

func TestBuyNotForSaleSkipsLedger(t *testing.T) {
	store := newMockStore()
	ldg := goodPayment()
	svc := NewService(store, ldg, tokenAddr)
	seedPet(store, "p1", seller, false, "0")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrNotForSale)
	assert.Zero(t, ldg.txCalls, "preconditions must not touch the node")
	assert.Zero(t, ldg.receiptCalls)
}

func TestBuyOwnPet(t *testing.T) {
	store := newMockStore()
	ldg := goodPayment()
	svc := NewService(store, ldg, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: "0x" + strings.ToUpper(seller[2:]), PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrSelfPurchase, "self purchase check ignores casing")
	assert.Zero(t, ldg.txCalls)
}

func TestBuyNotFound(t *testing.T) {
	svc := NewService(newMockStore(), goodPayment(), tokenAddr)

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "missing", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuyInsufficientPayment(t *testing.T) {
	store := newMockStore()
	ldg := &mockLedger{receipt: transferReceipt(common.HexToAddress(buyer), common.HexToAddress(seller), 9)}
	svc := NewService(store, ldg, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrPaymentUnverified)
	assert.Equal(t, strings.ToLower(seller), store.pets["p1"].Owner, "ownership unchanged")
}

func TestBuyTxNotFound(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{txErr: ledger.ErrNotFound}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrPaymentUnverified)
}

func TestBuyReceiptMissing(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{receiptErr: ledger.ErrNotFound}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrPaymentUnverified)
}

func TestBuyLedgerDown(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockLedger{txErr: ledger.ErrUnavailable}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestBuyFailedTransaction(t *testing.T) {
	store := newMockStore()
	receipt := transferReceipt(common.HexToAddress(buyer), common.HexToAddress(seller), 10)
	receipt.Status = types.ReceiptStatusFailed
	svc := NewService(store, &mockLedger{receipt: receipt}, tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrPaymentUnverified)
}

func TestBuyReplayRejected(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, goodPayment(), tokenAddr)
	seedPet(store, "p1", seller, true, "10")
	seedPet(store, "p2", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	require.NoError(t, err)

	// Same hash cannot settle a second purchase.
	ldg2 := &mockLedger{receipt: transferReceipt(common.HexToAddress(buyer), common.HexToAddress(seller), 10)}
	svc2 := NewService(store, ldg2, tokenAddr)
	_, err = svc2.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p2", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrTxSpent)
}

func TestBuyConcurrentConflict(t *testing.T) {
	store := newMockStore()
	store.transferErr = storage.ErrConflict
	svc := NewService(store, goodPayment(), tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBuyStoreFailureAfterVerification(t *testing.T) {
	store := newMockStore()
	store.transferErr = errors.New("disk full")
	svc := NewService(store, goodPayment(), tokenAddr)
	seedPet(store, "p1", seller, true, "10")

	_, err := svc.Buy(context.Background(), BuyRequest{Buyer: buyer, PetID: "p1", TxHash: buyTx})
	assert.ErrorIs(t, err, ErrPaymentNotRecorded)
}
