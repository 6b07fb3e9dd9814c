package main

import (
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/lst-ledger/pkg/blockrange"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "balances-file",
			Aliases: []string{"b"},
			Usage:   "File containing lines of balances data",
			EnvVars: []string{"BALANCES_FILE"},
			Value:   "balances.jsonl",
		},
	}
}

// runFlags returns all CLI flags for the yieldtracker run command
func runFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:    "rpc-url",
			Aliases: []string{"r", "rpc"},
			Usage:   "Full node RPC endpoint URL",
			EnvVars: []string{"RPC_URL"},
			Value:   "http://localhost:8545",
		},
		&cli.StringSliceFlag{
			Name:     "account",
			Aliases:  []string{"a"},
			Usage:    "Address or ENS name of an account to calculate yields for (repeatable)",
			EnvVars:  []string{"ACCOUNTS"},
			Required: true,
		},
		&cli.Uint64Flag{
			Name:    "from-block",
			Aliases: []string{"s"},
			Usage:   "First block to collect transfers from",
			EnvVars: []string{"FROM_BLOCK"},
		},
		&cli.Uint64Flag{
			Name:    "to-block",
			Aliases: []string{"t"},
			Usage:   "Last block to collect transfers from. If not specified, uses the chain head",
			EnvVars: []string{"TO_BLOCK"},
		},
		&cli.Uint64Flag{
			Name:    "max-window",
			Aliases: []string{"w"},
			Usage:   "Maximum number of blocks per log query",
			EnvVars: []string{"MAX_WINDOW"},
			Value:   blockrange.DefaultMaxWindow,
		},
		&cli.IntFlag{
			Name:    "decimals",
			Usage:   "Decimal places shown for ledger amounts",
			EnvVars: []string{"DECIMALS"},
			Value:   3,
		},
		&cli.IntFlag{
			Name:    "width",
			Usage:   "Minimum integer width of ledger amounts",
			EnvVars: []string{"WIDTH"},
			Value:   4,
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"c"},
			Usage:   "Maximum concurrent block timestamp lookups",
			EnvVars: []string{"CONCURRENCY"},
			Value:   16,
		},
		&cli.BoolFlag{
			Name:    "annotate",
			Usage:   "Append each transaction's target address to its ledger line",
			EnvVars: []string{"ANNOTATE"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Address for the Prometheus metrics server (empty to disable)",
			EnvVars: []string{"METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "network",
			Aliases: []string{"n"},
			Usage:   "Network name for metrics labels",
			EnvVars: []string{"NETWORK"},
			Value:   "mainnet",
		},
	)
}

// rateFlags returns all CLI flags for the yieldtracker rate command
func rateFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.Uint64Flag{
			Name:     "block",
			Aliases:  []string{"B"},
			Usage:    "Block to price",
			EnvVars:  []string{"BLOCK"},
			Required: true,
		},
	)
}
