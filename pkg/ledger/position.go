package ledger

import (
	"math/big"

	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
)

// Position is the running account state: claim tokens held and the backing value
// attributed to them when they were acquired. Both are signed scaled integers.
type Position struct {
	Balance   *big.Int
	CostBasis *big.Int
}

// NewPosition returns the empty position.
func NewPosition() Position {
	return Position{Balance: new(big.Int), CostBasis: new(big.Int)}
}

// Entry is one accounted transfer: the event, its direction, the rate it was priced at,
// and the backing amount moved.
type Entry struct {
	Event     types.TransferEvent
	Class     Class
	Rate      *big.Int
	RateBlock uint64
	Backing   *big.Int
}

// NewEntry prices amount at rate: Backing = rate * amount / 1e18, floor-divided.
func NewEntry(ev types.TransferEvent, class Class, rate *big.Int, rateBlock uint64) Entry {
	return Entry{
		Event:     ev,
		Class:     class,
		Rate:      rate,
		RateBlock: rateBlock,
		Backing:   fixedpoint.MulScaled(rate, ev.Amount),
	}
}

// Apply returns the position after e. Inflows add, outflows subtract, anything else is
// returned unchanged. The receiver is not modified.
func (p Position) Apply(e Entry) Position {
	next := Position{
		Balance:   new(big.Int).Set(p.Balance),
		CostBasis: new(big.Int).Set(p.CostBasis),
	}
	switch e.Class {
	case ClassInflow:
		next.Balance.Add(next.Balance, e.Event.Amount)
		next.CostBasis.Add(next.CostBasis, e.Backing)
	case ClassOutflow:
		next.Balance.Sub(next.Balance, e.Event.Amount)
		next.CostBasis.Sub(next.CostBasis, e.Backing)
	}
	return next
}
