package main

import (
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/lst-ledger/pkg/blockrange"
)

// runFlags returns all CLI flags for the balancesharvester run command
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Aliases: []string{"r", "rpc"},
			Usage:   "Full node RPC endpoint URL",
			EnvVars: []string{"RPC_URL"},
			Value:   "http://localhost:8545",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "File to append sorted checkpoints to",
			EnvVars: []string{"BALANCES_FILE"},
			Value:   "balances.jsonl",
		},
		&cli.Uint64Flag{
			Name:    "from-block",
			Aliases: []string{"s"},
			Usage:   "Block to collect events from. If not specified, resumes from the last line of the file",
			EnvVars: []string{"FROM_BLOCK"},
		},
		&cli.Uint64Flag{
			Name:    "to-block",
			Aliases: []string{"t"},
			Usage:   "Block to collect events until. If not specified, uses the chain head",
			EnvVars: []string{"TO_BLOCK"},
		},
		&cli.Uint64Flag{
			Name:    "max-window",
			Aliases: []string{"w"},
			Usage:   "Maximum number of blocks per log query",
			EnvVars: []string{"MAX_WINDOW"},
			Value:   blockrange.DefaultMaxWindow,
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
	}
}
