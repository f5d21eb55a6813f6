package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// transferTopic is the event signature hash of the ERC-20 transfer event,
// Transfer(address indexed from, address indexed to, uint256 value).
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// VerifyTransfer reports whether the receipt carries a Transfer event emitted
// by token that moved at least min from one account to another. Logs emitted
// by other contracts and logs that do not decode as a Transfer event are
// skipped silently: unrelated event types are expected noise, not errors.
//
// The amount comparison is exact integer arithmetic in the token's base
// unit. The receipt's execution status is the caller's precondition; a
// reverted receipt must not be passed here as if it were valid.
func VerifyTransfer(receipt *types.Receipt, token, from, to common.Address, min *big.Int) bool {
	if receipt == nil || min == nil {
		return false
	}
	for _, log := range receipt.Logs {
		if log == nil || log.Address != token {
			continue
		}
		logFrom, logTo, value, ok := decodeTransfer(log)
		if !ok {
			continue
		}
		if logFrom == from && logTo == to && value.Cmp(min) >= 0 {
			return true
		}
	}
	return false
}

// decodeTransfer decodes a single log against the Transfer event shape:
// topic0 is the signature, topics 1 and 2 the indexed from/to addresses,
// and the 32-byte data word the value.
func decodeTransfer(log *types.Log) (from, to common.Address, value *big.Int, ok bool) {
	if len(log.Topics) != 3 || log.Topics[0] != transferTopic {
		return common.Address{}, common.Address{}, nil, false
	}
	if len(log.Data) != 32 {
		return common.Address{}, common.Address{}, nil, false
	}
	from = common.BytesToAddress(log.Topics[1].Bytes())
	to = common.BytesToAddress(log.Topics[2].Bytes())
	value = new(big.Int).SetBytes(log.Data)
	return from, to, value, true
}
