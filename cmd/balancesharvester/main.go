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
		Name:  "balancesharvester",
		Usage: "Append Rocket Pool BalancesUpdated checkpoints to a JSONL file",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch new BalancesUpdated events and append them to the balances file",
				Flags:  runFlags(),
				Action: run,
			},
		},
	}
}
