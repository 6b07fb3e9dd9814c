package ledger

import (
	"github.com/ava-labs/libevm/common"

	"github.com/ava-labs/lst-ledger/internal/types"
)

// Class is how a transfer relates to the tracked account set.
type Class string

const (
	ClassInflow   Class = "inflow"   // only the recipient is tracked
	ClassOutflow  Class = "outflow"  // only the sender is tracked
	ClassInternal Class = "internal" // both endpoints tracked, excluded from accounting
	ClassForeign  Class = "foreign"  // neither endpoint tracked, a data error
	ClassUnknown  Class = "unknown"  // not a Transfer event
)

// Accounts is a set of tracked addresses.
type Accounts map[common.Address]struct{}

// NewAccounts builds a set from addrs.
func NewAccounts(addrs ...common.Address) Accounts {
	a := make(Accounts, len(addrs))
	for _, addr := range addrs {
		a[addr] = struct{}{}
	}
	return a
}

// Contains reports whether addr is tracked.
func (a Accounts) Contains(addr common.Address) bool {
	_, ok := a[addr]
	return ok
}

// List returns the tracked addresses in no particular order.
func (a Accounts) List() []common.Address {
	out := make([]common.Address, 0, len(a))
	for addr := range a {
		out = append(out, addr)
	}
	return out
}

// Classify maps an event onto its Class.
func Classify(ev types.TransferEvent, tracked Accounts) Class {
	if ev.Kind != types.EventTransfer {
		return ClassUnknown
	}
	from, to := tracked.Contains(ev.From), tracked.Contains(ev.To)
	switch {
	case from && to:
		return ClassInternal
	case from:
		return ClassOutflow
	case to:
		return ClassInflow
	default:
		return ClassForeign
	}
}
