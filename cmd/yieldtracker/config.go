package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
)

var errInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the yieldtracker run command
type Config struct {
	Verbose      bool
	RPCURL       string
	Accounts     []string
	BalancesFile string
	FromBlock    uint64
	ToBlock      *uint64 // nil uses the chain head
	MaxWindow    uint64
	Decimals     int
	Width        int
	Concurrency  int
	Annotate     bool
	MetricsAddr  string
	Network      string
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	cfg := &Config{
		Verbose:      c.Bool("verbose"),
		RPCURL:       c.String("rpc-url"),
		Accounts:     c.StringSlice("account"),
		BalancesFile: c.String("balances-file"),
		FromBlock:    c.Uint64("from-block"),
		MaxWindow:    c.Uint64("max-window"),
		Decimals:     c.Int("decimals"),
		Width:        c.Int("width"),
		Concurrency:  c.Int("concurrency"),
		Annotate:     c.Bool("annotate"),
		MetricsAddr:  c.String("metrics-addr"),
		Network:      c.String("network"),
	}
	if c.IsSet("to-block") {
		v := c.Uint64("to-block")
		cfg.ToBlock = &v
	}

	switch {
	case len(cfg.Accounts) == 0:
		return nil, fmt.Errorf("%w: at least one account is required", errInvalidConfig)
	case cfg.MaxWindow == 0:
		return nil, fmt.Errorf("%w: max-window must be greater than 0", errInvalidConfig)
	case cfg.ToBlock != nil && cfg.FromBlock > *cfg.ToBlock:
		return nil, fmt.Errorf("%w: from-block %d is after to-block %d", errInvalidConfig, cfg.FromBlock, *cfg.ToBlock)
	case cfg.Decimals < 0 || cfg.Decimals > fixedpoint.Decimals:
		return nil, fmt.Errorf("%w: decimals must be between 0 and %d", errInvalidConfig, fixedpoint.Decimals)
	case cfg.Width < 0:
		return nil, fmt.Errorf("%w: width must not be negative", errInvalidConfig)
	case cfg.Concurrency <= 0:
		return nil, fmt.Errorf("%w: concurrency must be greater than 0", errInvalidConfig)
	}
	return cfg, nil
}
