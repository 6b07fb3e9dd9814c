package chainclient

import (
	"context"
	"math/big"
	"time"

	"github.com/ava-labs/libevm/common"

	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/blockrange"
)

// HeadReader reports the current chain head height.
type HeadReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// BalancesReader returns BalancesUpdated events in one bounded block range.
type BalancesReader interface {
	BalancesUpdated(ctx context.Context, r blockrange.Range) ([]types.BalancesUpdated, error)
}

// TransferReader returns claim-token Transfer events in one bounded block range.
type TransferReader interface {
	Transfers(ctx context.Context, r blockrange.Range, filter types.TransferFilter) ([]types.TransferEvent, error)
}

// BlockTimeReader returns the timestamp of a block.
type BlockTimeReader interface {
	BlockTime(ctx context.Context, number uint64) (time.Time, error)
}

// TxTargetReader returns the recipient of a transaction, nil for contract creation.
type TxTargetReader interface {
	TransactionTarget(ctx context.Context, hash common.Hash) (*common.Address, error)
}

// RateReader returns the live claim-token exchange rate, scaled by 1e18.
type RateReader interface {
	ExchangeRate(ctx context.Context) (*big.Int, error)
}

// AccountResolver maps a human-readable name or hex string to an address.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, name string) (common.Address, error)
}

// ChainClient is everything the harvester and the ledger need from a node.
type ChainClient interface {
	HeadReader
	BalancesReader
	TransferReader
	BlockTimeReader
	TxTargetReader
	RateReader
	AccountResolver
	Close()
}
