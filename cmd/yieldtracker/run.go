package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ava-labs/libevm/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/lst-ledger/internal/chainclient"
	"github.com/ava-labs/lst-ledger/internal/chainclient/ethereum"
	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/ledger"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
	"github.com/ava-labs/lst-ledger/pkg/utils"
	"github.com/ava-labs/lst-ledger/pkg/yield"
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
		"accounts", cfg.Accounts,
		"balancesFile", cfg.BalancesFile,
		"fromBlock", cfg.FromBlock,
		"toBlock", cfg.ToBlock,
		"maxWindow", cfg.MaxWindow,
		"decimals", cfg.Decimals,
		"width", cfg.Width,
		"concurrency", cfg.Concurrency,
		"annotate", cfg.Annotate,
		"metricsAddr", cfg.MetricsAddr,
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

	series, err := checkpoint.NewStore(cfg.BalancesFile).LoadSeries(sugar, checkpoint.WithStaleHook(m.IncStaleLookup))
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	sugar.Infof("got %d balances lines", series.Len())

	ethCfg, err := ethereum.LoadConfig()
	if err != nil {
		return err
	}
	client, err := ethereum.New(ctx, cfg.RPCURL, ethCfg, ethereum.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}
	defer client.Close()

	accounts, err := resolveAccounts(ctx, client, cfg.Accounts)
	if err != nil {
		return err
	}
	sugar.Infow("tracking for", "accounts", accounts)

	to, err := toBlock(ctx, client, cfg.ToBlock)
	if err != nil {
		return err
	}

	format := ledger.DefaultFormat()
	format.Decimals = cfg.Decimals
	format.Width = cfg.Width
	opts := []ledger.Option{
		ledger.WithFormat(format),
		ledger.WithConcurrency(cfg.Concurrency),
		ledger.WithMetrics(m),
	}
	if cfg.Annotate {
		opts = append(opts, ledger.WithTxTargets())
	}
	builder := ledger.NewBuilder(sugar, client, series, ledger.NewAccounts(accounts...), opts...)

	events, err := builder.Collect(ctx, cfg.FromBlock, to, cfg.MaxWindow)
	if err != nil {
		return err
	}
	res, err := builder.Build(ctx, events)
	if err != nil {
		sugar.Errorw("run failed", "error", err)
		return err
	}

	out := c.App.Writer
	for _, line := range res.Lines {
		fmt.Fprintln(out, line)
	}
	return yield.NewReporter(sugar, client, format).Report(ctx, out, res.Position)
}

func resolveAccounts(ctx context.Context, r chainclient.AccountResolver, names []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(names))
	for _, name := range names {
		addr, err := r.ResolveAccount(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve account: %w", err)
		}
		out = append(out, addr)
	}
	return out, nil
}

func toBlock(ctx context.Context, h chainclient.HeadReader, explicit *uint64) (uint64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	head, err := h.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block height: %w", err)
	}
	return head, nil
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
