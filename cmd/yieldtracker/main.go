package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "yieldtracker",
		Usage: "Reconstruct an rETH position from its transfer history and report its staking return",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Print the transfer ledger and the return of the tracked accounts",
				Flags:  runFlags(),
				Action: run,
			},
			{
				Name:   "rate",
				Usage:  "Print the exchange rate in effect at a block and exit",
				Flags:  rateFlags(),
				Action: rate,
			},
		},
	}
}
