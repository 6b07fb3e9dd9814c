package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
	"github.com/ava-labs/lst-ledger/pkg/utils"
)

// rate prints the checkpoint rate in effect at --block without touching the node.
func rate(c *cli.Context) error {
	sugar, err := utils.NewSugaredLogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	block := c.Uint64("block")
	series, err := checkpoint.NewStore(c.String("balances-file")).LoadSeries(sugar)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	cp, err := series.Lookup(block)
	if err != nil {
		return err
	}
	r, err := cp.Rate()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "Rate@%d: %s\n", cp.BlockNumber(), fixedpoint.Format(r))
	return err
}
