//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/petmint/petmint/internal/config"
	"github.com/petmint/petmint/internal/ledger"
	petsDomain "github.com/petmint/petmint/internal/pets/domain"
	"github.com/petmint/petmint/internal/server"
	"github.com/petmint/petmint/internal/storage"
	"github.com/petmint/petmint/pkg/client"
)

// Payment settings shared by every test. Each mint costs 10 base units paid
// to the treasury; purchases pay the listed price to the seller.
var (
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000c0a17")
	treasuryAddr = common.HexToAddress("0x000000000000000000000000000000000000fee5")
	mintPrice    = big.NewInt(10)
)

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	TestServer        *httptest.Server
	Store             storage.Store
	Ledger            *stubLedger
}

// stubLedger stands in for the blockchain node. Tests register receipts for
// chosen hashes; everything else reports not found, like a node that never
// saw the transaction.
type stubLedger struct {
	mu       sync.Mutex
	receipts map[common.Hash]*types.Receipt
}

func newStubLedger() *stubLedger {
	return &stubLedger{receipts: make(map[common.Hash]*types.Receipt)}
}

func (l *stubLedger) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.receipts[hash]; !ok {
		return nil, ledger.ErrNotFound
	}
	return types.NewTx(&types.LegacyTx{}), nil
}

func (l *stubLedger) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	receipt, ok := l.receipts[hash]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return receipt, nil
}

// addTransfer registers a successful transaction whose receipt carries one
// token Transfer of amount from one account to another.
func (l *stubLedger) addTransfer(hash common.Hash, from, to common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts[hash] = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			{
				Address: tokenAddr,
				Topics: []common.Hash{
					transferTopic,
					common.BytesToHash(from.Bytes()),
					common.BytesToHash(to.Bytes()),
				},
				Data: common.BigToHash(amount).Bytes(),
			},
		},
	}
}

var txCounter atomic.Int64

// nextTxHash returns a fresh, never-before-used transaction hash.
func nextTxHash() common.Hash {
	return common.BigToHash(big.NewInt(0x7e57 + txCounter.Add(1)))
}

// setupPostgresE starts a Postgres container and returns the connection string
func setupPostgresE(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("petmint"),
		postgres.WithUsername("petmint"),
		postgres.WithPassword("petmint"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return postgresContainer, connString, nil
}

// startServerE starts the petmint server in-process against the given
// database, wired to a stub ledger the tests control.
func startServerE(connString string) (*httptest.Server, storage.Store, *stubLedger, error) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: config.StorageConfig{
			Type: "postgres",
			Postgres: config.PostgresConfig{
				URL: connString,
			},
		},
		Images:    config.ImagesConfig{AssetDir: "testdata/assets"},
		Logging:   config.LoggingConfig{Level: "debug", Format: "text"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ldg := newStubLedger()

	mint := petsDomain.MintPolicy{
		Token:    tokenAddr,
		Treasury: treasuryAddr,
		Price:    mintPrice,
	}

	srv := server.New(cfg, store, ldg, mint, logger)
	testServer := httptest.NewServer(srv.Handler())

	return testServer, store, ldg, nil
}

// newClient creates a new API client for the test server
func newClient(testServer *httptest.Server) *client.Client {
	return client.New(testServer.URL)
}

// mintPet pays the mint fee on the stub ledger and mints a pet for owner.
func mintPet(t *testing.T, c *client.Client, owner string) *client.Pet {
	t.Helper()

	hash := nextTxHash()
	testCtx.Ledger.addTransfer(hash, common.HexToAddress(owner), treasuryAddr, mintPrice)

	pet, err := c.CreatePet(context.Background(), client.CreatePetRequest{
		Owner:  owner,
		TxHash: hash.Hex(),
	})
	require.NoError(t, err, "Failed to mint pet")
	return pet
}

// assertHTTPError asserts that an error is an APIError with the expected code
func assertHTTPError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	require.Error(t, err, "Expected an error")
	apiErr, ok := err.(*client.APIError)
	require.True(t, ok, "Error should be an APIError")
	require.Equal(t, expectedCode, apiErr.Code, "Error code mismatch")
}
