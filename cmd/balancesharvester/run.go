package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/lst-ledger/internal/chainclient/ethereum"
	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/harvester"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
	"github.com/ava-labs/lst-ledger/pkg/utils"
)

const metricsShutdownTimeout = 5 * time.Second

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"rpcURL", cfg.RPCURL,
		"file", cfg.File,
		"fromBlock", cfg.FromBlock,
		"toBlock", cfg.ToBlock,
		"maxWindow", cfg.MaxWindow,
		"metricsAddr", cfg.MetricsAddr,
		"network", cfg.Network,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{Tool: c.App.Name, Network: cfg.Network})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		shutdown, err := startMetrics(sugar, cfg.MetricsAddr, registry)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	ethCfg, err := ethereum.LoadConfig()
	if err != nil {
		return err
	}
	client, err := ethereum.New(ctx, cfg.RPCURL, ethCfg, ethereum.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}
	defer client.Close()
	sugar.Infow("resolved contracts", "balances", client.BalancesAddresses())

	h := harvester.New(sugar, client, checkpoint.NewStore(cfg.File), harvester.WithMetrics(m))
	res, err := h.Run(ctx, harvester.Config{
		FromBlock: cfg.FromBlock,
		ToBlock:   cfg.ToBlock,
		MaxWindow: cfg.MaxWindow,
	})
	if err != nil {
		sugar.Errorw("run failed", "error", err)
		return err
	}

	sugar.Infow("done",
		"from", res.From,
		"to", res.To,
		"fetched", res.Fetched,
		"appended", len(res.Appended),
		"file", cfg.File,
	)
	return nil
}

// startMetrics serves registry on addr for the lifetime of the run.
func startMetrics(sugar *zap.SugaredLogger, addr string, registry *prometheus.Registry) (func(), error) {
	srv := metrics.NewServer(addr, registry)
	errCh, err := srv.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	sugar.Infof("metrics server listening on http://%s/metrics", srv.Addr())
	go func() {
		for err := range errCh {
			sugar.Errorw("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			sugar.Warnw("metrics server shutdown", "error", err)
		}
	}, nil
}
