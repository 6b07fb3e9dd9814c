package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/ava-labs/libevm/common"

	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
)

// DateLayout renders ledger timestamps as DD/Mon/YYYY HH:MM:SS.
const DateLayout = "02/Jan/2006 15:04:05"

// Format controls ledger line rendering.
type Format struct {
	Decimals       int // fractional digits for amounts
	Width          int // minimum integer-part width for amounts
	RateDecimals   int
	RateWidth      int
	DerivativeUnit string
	UnderlyingUnit string
}

// DefaultFormat returns the rETH/ETH layout: amounts at 3 decimals padded to 4, rates at
// 4 decimals unpadded.
func DefaultFormat() Format {
	return Format{
		Decimals:       3,
		Width:          4,
		RateDecimals:   4,
		RateWidth:      1,
		DerivativeUnit: "rETH",
		UnderlyingUnit: "ETH",
	}
}

// Line renders an entry as
//
//	<txHash> <date> -> <amount> rETH Rate@<block>: <rate> <- <backing> ETH
//
// for outflows, with the arrows reversed for inflows. target, when non-nil, is appended as
// "via <address>".
func (f Format) Line(e Entry, at time.Time, target *common.Address) string {
	out, in := "->", "<-"
	if e.Class == ClassInflow {
		out, in = in, out
	}
	parts := []string{
		e.Event.TxHash.Hex(),
		at.UTC().Format(DateLayout),
		out + " " + fixedpoint.FormatColumn(e.Event.Amount, f.Decimals, f.Width) + " " + f.DerivativeUnit,
		"Rate@" + strconv.FormatUint(e.RateBlock, 10) + ": " + fixedpoint.FormatColumn(e.Rate, f.RateDecimals, f.RateWidth),
		in + " " + fixedpoint.FormatColumn(e.Backing, f.Decimals, f.Width) + " " + f.UnderlyingUnit,
	}
	if target != nil {
		parts = append(parts, "via "+target.Hex())
	}
	return strings.Join(parts, " ")
}
