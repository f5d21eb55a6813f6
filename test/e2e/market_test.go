//go:build e2e

package e2e

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petmint/petmint/pkg/client"
)

// TestMarketListing covers listing, relisting and delisting.
func TestMarketListing(t *testing.T) {
	c := newClient(testCtx.TestServer)

	pet := mintPet(t, c, alice)

	t.Run("list a pet for sale", func(t *testing.T) {
		listed, err := c.ListForSale(context.Background(), client.ListForSaleRequest{
			Owner: alice,
			PetID: pet.ID,
			Price: "100",
		})
		require.NoError(t, err)

		assert.True(t, listed.ForSale)
		assert.Equal(t, "100", listed.Price)
	})

	t.Run("listed pet shows up on the market", func(t *testing.T) {
		listings, err := c.Market(context.Background())
		require.NoError(t, err)

		found := false
		for _, l := range listings {
			if l.ID == pet.ID {
				found = true
				assert.True(t, l.ForSale)
				assert.Equal(t, "100", l.Price)
			}
		}
		assert.True(t, found, "Listed pet should appear in market listings")
	})

	t.Run("relisting changes the price", func(t *testing.T) {
		listed, err := c.ListForSale(context.Background(), client.ListForSaleRequest{
			Owner: alice,
			PetID: pet.ID,
			Price: "250",
		})
		require.NoError(t, err)

		assert.Equal(t, "250", listed.Price)
	})

	t.Run("invalid price is rejected", func(t *testing.T) {
		for _, price := range []string{"", "0", "-5", "1.5", "ten"} {
			_, err := c.ListForSale(context.Background(), client.ListForSaleRequest{
				Owner: alice,
				PetID: pet.ID,
				Price: price,
			})
			assertHTTPError(t, err, "INVALID_PRICE")
		}
	})

	t.Run("listing someone else's pet is forbidden", func(t *testing.T) {
		_, err := c.ListForSale(context.Background(), client.ListForSaleRequest{
			Owner: bob,
			PetID: pet.ID,
			Price: "100",
		})
		assertHTTPError(t, err, "FORBIDDEN")
	})

	t.Run("delist takes the pet off the market", func(t *testing.T) {
		delisted, err := c.Delist(context.Background(), client.DelistRequest{Owner: alice, PetID: pet.ID})
		require.NoError(t, err)

		assert.False(t, delisted.ForSale)
		assert.Equal(t, "0", delisted.Price)
	})

	t.Run("delisting an unlisted pet conflicts", func(t *testing.T) {
		_, err := c.Delist(context.Background(), client.DelistRequest{Owner: alice, PetID: pet.ID})
		assertHTTPError(t, err, "NOT_FOR_SALE")
	})
}

// TestBuyPet covers the full purchase flow with payment verification against
// the stub ledger.
func TestBuyPet(t *testing.T) {
	c := newClient(testCtx.TestServer)

	listForPrice := func(t *testing.T, owner, price string) *client.Pet {
		t.Helper()
		pet := mintPet(t, c, owner)
		listed, err := c.ListForSale(context.Background(), client.ListForSaleRequest{
			Owner: owner,
			PetID: pet.ID,
			Price: price,
		})
		require.NoError(t, err)
		return listed
	}

	t.Run("buy with valid payment transfers ownership", func(t *testing.T) {
		pet := listForPrice(t, alice, "100")

		hash := nextTxHash()
		testCtx.Ledger.addTransfer(hash, common.HexToAddress(bob), common.HexToAddress(alice), big.NewInt(100))

		bought, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  pet.ID,
			TxHash: hash.Hex(),
		})
		require.NoError(t, err)

		assert.Equal(t, strings.ToLower(bob), bought.Owner)
		assert.False(t, bought.ForSale)
		assert.Equal(t, "0", bought.Price)
	})

	t.Run("buying an unlisted pet conflicts", func(t *testing.T) {
		pet := mintPet(t, c, alice)

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  pet.ID,
			TxHash: nextTxHash().Hex(),
		})
		assertHTTPError(t, err, "NOT_FOR_SALE")
	})

	t.Run("buying your own pet is rejected", func(t *testing.T) {
		pet := listForPrice(t, alice, "100")

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  alice,
			PetID:  pet.ID,
			TxHash: nextTxHash().Hex(),
		})
		assertHTTPError(t, err, "SELF_PURCHASE")
	})

	t.Run("underpayment is rejected", func(t *testing.T) {
		pet := listForPrice(t, alice, "100")

		hash := nextTxHash()
		testCtx.Ledger.addTransfer(hash, common.HexToAddress(bob), common.HexToAddress(alice), big.NewInt(99))

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  pet.ID,
			TxHash: hash.Hex(),
		})
		assertHTTPError(t, err, "PAYMENT_UNVERIFIED")
	})

	t.Run("payment to the wrong account is rejected", func(t *testing.T) {
		pet := listForPrice(t, alice, "100")

		hash := nextTxHash()
		testCtx.Ledger.addTransfer(hash, common.HexToAddress(bob), treasuryAddr, big.NewInt(100))

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  pet.ID,
			TxHash: hash.Hex(),
		})
		assertHTTPError(t, err, "PAYMENT_UNVERIFIED")
	})

	t.Run("unknown transaction is rejected", func(t *testing.T) {
		pet := listForPrice(t, alice, "100")

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  pet.ID,
			TxHash: nextTxHash().Hex(),
		})
		assertHTTPError(t, err, "PAYMENT_UNVERIFIED")
	})

	t.Run("reusing a payment transaction is rejected", func(t *testing.T) {
		first := listForPrice(t, alice, "100")

		hash := nextTxHash()
		testCtx.Ledger.addTransfer(hash, common.HexToAddress(bob), common.HexToAddress(alice), big.NewInt(100))

		_, err := c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  first.ID,
			TxHash: hash.Hex(),
		})
		require.NoError(t, err)

		second := listForPrice(t, alice, "100")
		_, err = c.Buy(context.Background(), client.BuyRequest{
			Buyer:  bob,
			PetID:  second.ID,
			TxHash: hash.Hex(),
		})
		assertHTTPError(t, err, "TX_ALREADY_USED")
	})
}
