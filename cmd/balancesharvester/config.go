package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

var errInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the balancesharvester application
type Config struct {
	Verbose     bool
	RPCURL      string
	File        string
	FromBlock   *uint64 // nil resumes from the file
	ToBlock     *uint64 // nil uses the chain head
	MaxWindow   uint64
	MetricsAddr string
	Network     string
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	cfg := &Config{
		Verbose:     c.Bool("verbose"),
		RPCURL:      c.String("rpc-url"),
		File:        c.String("file"),
		MaxWindow:   c.Uint64("max-window"),
		MetricsAddr: c.String("metrics-addr"),
		Network:     c.String("network"),
	}
	if c.IsSet("from-block") {
		v := c.Uint64("from-block")
		cfg.FromBlock = &v
	}
	if c.IsSet("to-block") {
		v := c.Uint64("to-block")
		cfg.ToBlock = &v
	}

	if cfg.MaxWindow == 0 {
		return nil, fmt.Errorf("%w: max-window must be greater than 0", errInvalidConfig)
	}
	if cfg.FromBlock != nil && cfg.ToBlock != nil && *cfg.FromBlock > *cfg.ToBlock {
		return nil, fmt.Errorf("%w: from-block %d is after to-block %d", errInvalidConfig, *cfg.FromBlock, *cfg.ToBlock)
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("%w: file is required", errInvalidConfig)
	}
	return cfg, nil
}
