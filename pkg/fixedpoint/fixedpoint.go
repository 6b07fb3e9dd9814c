// Package fixedpoint implements integer arithmetic and rendering for values scaled by 1e18.
//
// All division is floor division on non-negative operands (truncation toward zero for
// signed operands, matching big.Int.Quo). The truncation is intentional: displayed cost
// basis must reproduce the on-chain integer result exactly.
package fixedpoint

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by every scaled value.
const Decimals = 18

var (
	// Scale is 1e18, the value representing one whole unit.
	Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

	ErrZeroDenominator = errors.New("zero denominator")
)

// Rate returns total * Scale / supply.
func Rate(total, supply *big.Int) (*big.Int, error) {
	return MulDiv(total, Scale, supply)
}

// MulScaled returns a * b / Scale.
func MulScaled(a, b *big.Int) *big.Int {
	r, _ := MulDiv(a, b, Scale)
	return r
}

// DivScaled returns a * Scale / b.
func DivScaled(a, b *big.Int) (*big.Int, error) {
	return MulDiv(a, Scale, b)
}

// MulDiv returns a * b / d without intermediate rounding.
func MulDiv(a, b, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, ErrZeroDenominator
	}
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, d), nil
}

// Units parses a decimal string such as "1.1" into its scaled integer form.
func Units(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d.Shift(Decimals).BigInt(), nil
}

// MustUnits is Units for constants; it panics on malformed input.
func MustUnits(s string) *big.Int {
	v, err := Units(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders a scaled value at full precision, e.g. 1.6e18 -> "1.6".
// Whole numbers keep one fractional digit ("6.0").
func Format(n *big.Int) string {
	s := decimal.NewFromBigInt(n, -Decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatColumn truncates a scaled value to dps fractional digits and left-pads the
// integer part with spaces to width characters, for column alignment.
func FormatColumn(n *big.Int, dps, width int) string {
	if dps < 0 {
		dps = 0
	}
	if dps > Decimals {
		dps = Decimals
	}
	s := decimal.NewFromBigInt(n, -Decimals).Truncate(int32(dps)).StringFixed(int32(dps))
	intPart, frac, _ := strings.Cut(s, ".")
	if pad := width - len(intPart); pad > 0 {
		intPart = strings.Repeat(" ", pad) + intPart
	}
	if dps == 0 {
		return intPart
	}
	return intPart + "." + frac
}
