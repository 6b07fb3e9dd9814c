// Package checkpoint holds the block-ordered series of protocol balance snapshots used to
// price claim-token transfers, together with its append-only JSONL store.
package checkpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
)

// Layout identifies which positional schema a record was written with. The protocol added
// timestamp fields to BalancesUpdated over time; field 0 is the block in every layout.
type Layout int

const (
	// LayoutLegacy is [block, totalEth, stakingEth, rethSupply].
	LayoutLegacy Layout = iota
	// LayoutTimed is [block, totalEth, stakingEth, rethSupply, time].
	LayoutTimed
	// LayoutSlotted is [block, slotTimestamp, totalEth, stakingEth, rethSupply, blockTimestamp].
	LayoutSlotted
)

func (l Layout) String() string {
	switch l {
	case LayoutLegacy:
		return "legacy"
	case LayoutTimed:
		return "timed"
	case LayoutSlotted:
		return "slotted"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

var (
	ErrTooFewFields = errors.New("checkpoint record needs at least 4 fields")
	ErrZeroSupply   = errors.New("checkpoint has zero derivative supply")
)

// Checkpoint is one snapshot of protocol-wide totals. Fields holds the record exactly as
// stored, so fields this package does not interpret survive a round trip.
type Checkpoint struct {
	Layout Layout
	Fields []*big.Int
}

// New builds a checkpoint from positional fields, inferring the layout from their count.
func New(fields []*big.Int) (Checkpoint, error) {
	var l Layout
	switch n := len(fields); {
	case n < 4:
		return Checkpoint{}, fmt.Errorf("%w: got %d", ErrTooFewFields, n)
	case n == 4:
		l = LayoutLegacy
	case n == 5:
		l = LayoutTimed
	default:
		l = LayoutSlotted
	}
	for i, f := range fields {
		if f == nil || f.Sign() < 0 {
			return Checkpoint{}, fmt.Errorf("field %d: must be a non-negative integer", i)
		}
	}
	if !fields[0].IsUint64() {
		return Checkpoint{}, fmt.Errorf("block number %s overflows uint64", fields[0])
	}
	return Checkpoint{Layout: l, Fields: fields}, nil
}

func (c Checkpoint) offset() int {
	if c.Layout == LayoutSlotted {
		return 2
	}
	return 1
}

// BlockNumber is the block the snapshot was taken at.
func (c Checkpoint) BlockNumber() uint64 { return c.Fields[0].Uint64() }

// TotalUnderlying is the scaled total backing value.
func (c Checkpoint) TotalUnderlying() *big.Int { return c.Fields[c.offset()] }

// StakingUnderlying is informational and not used for pricing.
func (c Checkpoint) StakingUnderlying() *big.Int { return c.Fields[c.offset()+1] }

// DerivativeSupply is the scaled outstanding claim-token supply.
func (c Checkpoint) DerivativeSupply() *big.Int { return c.Fields[c.offset()+2] }

// Timestamp returns the block timestamp recorded with the snapshot, when the layout has one.
func (c Checkpoint) Timestamp() (uint64, bool) {
	switch c.Layout {
	case LayoutTimed:
		return c.Fields[4].Uint64(), true
	case LayoutSlotted:
		return c.Fields[5].Uint64(), true
	default:
		return 0, false
	}
}

// Rate is TotalUnderlying * 1e18 / DerivativeSupply, floor-divided.
func (c Checkpoint) Rate() (*big.Int, error) {
	r, err := fixedpoint.Rate(c.TotalUnderlying(), c.DerivativeSupply())
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", c.BlockNumber(), ErrZeroSupply)
	}
	return r, nil
}
