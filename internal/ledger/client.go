// Package ledger provides read-only access to the blockchain node and the
// verification of token transfers against transaction receipts. The chain is
// treated as an untrusted, eventually-consistent ledger: this package only
// reads and decodes, it never retries, polls, or submits.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Common errors returned by the ledger client. ErrNotFound means the node
// answered and the object does not exist (bad or not-yet-mined hash);
// ErrUnavailable means the node could not be reached or errored, which is
// transient and retryable by the caller.
var (
	ErrNotFound    = errors.New("not found on ledger")
	ErrUnavailable = errors.New("ledger unavailable")
)

// Client is a read-only adapter over one externally-supplied node endpoint.
// It is constructed once at startup and shared; it holds no mutable state
// beyond the underlying RPC connection.
type Client struct {
	eth     *ethclient.Client
	timeout time.Duration
}

// Dial connects to the node at url. Every subsequent call is bounded by
// timeout so that slow node I/O cannot stall request handling indefinitely.
func Dial(url string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing node %s: %w", url, err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{eth: eth, timeout: timeout}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// NetworkID returns the network identifier the node reports.
func (c *Client) NetworkID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.eth.NetworkID(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return id, nil
}

// TransactionByHash fetches a transaction. Returns ErrNotFound if the node
// does not know the hash.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, _, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, mapErr(err)
	}
	return tx, nil
}

// TransactionReceipt fetches a transaction receipt. Returns ErrNotFound both
// for unknown hashes and for transactions that are not yet mined; the caller
// decides whether that is retryable.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, mapErr(err)
	}
	return receipt, nil
}

func mapErr(err error) error {
	if errors.Is(err, ethereum.NotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
