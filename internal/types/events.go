package types

import (
	"math/big"

	"github.com/ava-labs/libevm/common"
)

type EventKind string

const (
	EventTransfer EventKind = "Transfer"
	EventUnknown  EventKind = "unknown"
)

// BalancesUpdated is one decoded BalancesUpdated log. Fields are the event arguments in
// declaration order; field 0 is the block the balances were computed at.
type BalancesUpdated struct {
	LogBlock uint64
	TxHash   common.Hash
	Fields   []*big.Int
}

// TransferEvent is one claim-token log. Kind is EventUnknown when the log topic did not
// match the Transfer signature, in which case Name carries the topic for diagnostics.
type TransferEvent struct {
	Kind        EventKind
	Name        string
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
	From        common.Address
	To          common.Address
	Amount      *big.Int
}

// TransferFilter selects Transfer logs by sender and/or recipient. An empty side matches
// any address.
type TransferFilter struct {
	From []common.Address
	To   []common.Address
}
