// Package yield values a ledger's closing position at the live exchange rate.
package yield

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"go.uber.org/zap"

	"github.com/ava-labs/lst-ledger/internal/chainclient"
	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
	"github.com/ava-labs/lst-ledger/pkg/ledger"
)

// Summary is the valuation of a non-empty position. All values are 1e18-scaled.
type Summary struct {
	Balance      *big.Int
	CostBasis    *big.Int
	AccountRate  *big.Int // average acquisition rate
	CurrentRate  *big.Int
	CurrentValue *big.Int
	Return       *big.Int // CurrentValue - CostBasis, may be negative
}

// Summarize values pos at currentRate. pos.Balance must be non-zero.
func Summarize(pos ledger.Position, currentRate *big.Int) (Summary, error) {
	accountRate, err := fixedpoint.DivScaled(pos.CostBasis, pos.Balance)
	if err != nil {
		return Summary{}, fmt.Errorf("account rate: %w", err)
	}
	value := fixedpoint.MulScaled(pos.Balance, currentRate)
	return Summary{
		Balance:      pos.Balance,
		CostBasis:    pos.CostBasis,
		AccountRate:  accountRate,
		CurrentRate:  currentRate,
		CurrentValue: value,
		Return:       new(big.Int).Sub(value, pos.CostBasis),
	}, nil
}

type Reporter struct {
	log            *zap.SugaredLogger
	rates          chainclient.RateReader
	derivativeUnit string
	underlyingUnit string
}

func NewReporter(log *zap.SugaredLogger, rates chainclient.RateReader, f ledger.Format) *Reporter {
	return &Reporter{
		log:            log,
		rates:          rates,
		derivativeUnit: f.DerivativeUnit,
		underlyingUnit: f.UnderlyingUnit,
	}
}

// Report writes the closing valuation of pos to w. An empty position prints a single
// notice and does not query the live rate.
func (r *Reporter) Report(ctx context.Context, w io.Writer, pos ledger.Position) error {
	if pos.Balance.Sign() == 0 {
		_, err := fmt.Fprintf(w, "No %s in account\n", r.derivativeUnit)
		return err
	}

	r.log.Info("calculating return")
	rate, err := r.rates.ExchangeRate(ctx)
	if err != nil {
		return fmt.Errorf("get current exchange rate: %w", err)
	}
	s, err := Summarize(pos, rate)
	if err != nil {
		return err
	}

	d, u := r.derivativeUnit, r.underlyingUnit
	_, err = fmt.Fprintf(w,
		"Net balance: %s %s acquired at a cost of %s %s\n"+
			"Account %s price: %s %s\n"+
			"Current %s price: %s %s\n"+
			"%s %s's worth of %s acquired for the above cost\n"+
			"Staking return: %s %s\n",
		fixedpoint.Format(s.Balance), d, fixedpoint.Format(s.CostBasis), u,
		d, fixedpoint.Format(s.AccountRate), u,
		d, fixedpoint.Format(s.CurrentRate), u,
		fixedpoint.Format(s.CurrentValue), u, d,
		fixedpoint.Format(s.Return), u,
	)
	return err
}
