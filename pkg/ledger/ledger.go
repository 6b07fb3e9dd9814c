// Package ledger reconstructs an account's claim-token history against the checkpoint
// series: it classifies each transfer, prices it at the rate in effect at its block, folds
// the result into a running Position and renders one line per accounted transfer.
//
// Building is two-phase. The fold runs first, strictly in block order, so any fatal rate
// lookup aborts before output exists. Block timestamps are then fetched concurrently and
// lines are rendered back in the pre-sorted order, independent of completion order.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ava-labs/libevm/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/lst-ledger/internal/chainclient"
	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/blockrange"
	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
)

const defaultConcurrency = 16

// Source is the node surface the builder needs.
type Source interface {
	chainclient.TransferReader
	chainclient.BlockTimeReader
	chainclient.TxTargetReader
}

// Rates resolves the checkpoint in effect at a block. *checkpoint.Series implements it.
type Rates interface {
	Lookup(block uint64) (checkpoint.Checkpoint, error)
}

// Result is the outcome of Build.
type Result struct {
	Entries  []Entry
	Lines    []string
	Position Position
}

type Builder struct {
	log         *zap.SugaredLogger
	source      Source
	rates       Rates
	tracked     Accounts
	format      Format
	concurrency int
	annotate    bool
	metrics     *metrics.Metrics
}

// Option configures the Builder.
type Option func(*Builder)

// WithFormat overrides DefaultFormat.
func WithFormat(f Format) Option {
	return func(b *Builder) {
		b.format = f
	}
}

// WithConcurrency bounds concurrent per-event lookups.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithTxTargets appends each transaction's recipient to its line.
func WithTxTargets() Option {
	return func(b *Builder) {
		b.annotate = true
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

func NewBuilder(log *zap.SugaredLogger, source Source, rates Rates, tracked Accounts, opts ...Option) *Builder {
	b := &Builder{
		log:         log,
		source:      source,
		rates:       rates,
		tracked:     tracked,
		format:      DefaultFormat(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Collect fetches transfers sent and received by the tracked accounts over [from, to],
// one bounded window at a time, and returns them merged in ascending block order.
func (b *Builder) Collect(ctx context.Context, from, to, maxWindow uint64) ([]types.TransferEvent, error) {
	addrs := b.tracked.List()

	b.log.Info("retrieving send events")
	sent, err := b.fetch(ctx, from, to, maxWindow, types.TransferFilter{From: addrs})
	if err != nil {
		return nil, fmt.Errorf("retrieve send events: %w", err)
	}
	b.log.Info("retrieving receive events")
	received, err := b.fetch(ctx, from, to, maxWindow, types.TransferFilter{To: addrs})
	if err != nil {
		return nil, fmt.Errorf("retrieve receive events: %w", err)
	}

	b.log.Infow("sorting events", "sent", len(sent), "received", len(received))
	events := append(sent, received...)
	sortByBlock(events)
	return events, nil
}

func (b *Builder) fetch(ctx context.Context, from, to, maxWindow uint64, f types.TransferFilter) ([]types.TransferEvent, error) {
	return blockrange.Fetch(ctx, from, to, maxWindow,
		func(ctx context.Context, r blockrange.Range) ([]types.TransferEvent, error) {
			return b.source.Transfers(ctx, r, f)
		})
}

// Build accounts for events and renders the ledger. events need not be sorted.
func (b *Builder) Build(ctx context.Context, events []types.TransferEvent) (Result, error) {
	sorted := make([]types.TransferEvent, len(events))
	copy(sorted, events)
	sortByBlock(sorted)

	b.log.Info("processing events")
	entries, pos, err := b.fold(sorted)
	if err != nil {
		return Result{}, err
	}

	lines, err := b.render(ctx, entries)
	if err != nil {
		return Result{}, err
	}
	return Result{Entries: entries, Lines: lines, Position: pos}, nil
}

// fold classifies and prices events in order, threading the Position through.
func (b *Builder) fold(events []types.TransferEvent) ([]Entry, Position, error) {
	pos := NewPosition()
	entries := make([]Entry, 0, len(events))
	ignored := make(map[common.Hash]struct{})

	for _, ev := range events {
		class := Classify(ev, b.tracked)
		b.metrics.IncLedgerEvent(string(class))

		switch class {
		case ClassUnknown:
			b.log.Errorw("unknown event", "txHash", ev.TxHash.Hex(), "event", ev.Name)
			continue
		case ClassForeign:
			b.log.Errorw("transfer from/to wrong account",
				"txHash", ev.TxHash.Hex(),
				"from", ev.From.Hex(),
				"to", ev.To.Hex(),
			)
			continue
		case ClassInternal:
			if _, seen := ignored[ev.TxHash]; !seen {
				ignored[ev.TxHash] = struct{}{}
				b.log.Infow("ignoring inter-account transaction", "txHash", ev.TxHash.Hex())
			}
			continue
		}

		cp, err := b.rates.Lookup(ev.BlockNumber)
		if err != nil {
			return nil, Position{}, fmt.Errorf("price tx %s at block %d: %w", ev.TxHash.Hex(), ev.BlockNumber, err)
		}
		rate, err := cp.Rate()
		if err != nil {
			return nil, Position{}, fmt.Errorf("price tx %s: %w", ev.TxHash.Hex(), err)
		}
		e := NewEntry(ev, class, rate, cp.BlockNumber())
		pos = pos.Apply(e)
		entries = append(entries, e)
	}
	return entries, pos, nil
}

// render gathers each entry's block time (and optionally its tx target) concurrently, then
// formats lines in entry order.
func (b *Builder) render(ctx context.Context, entries []Entry) ([]string, error) {
	times := make([]time.Time, len(entries))
	targets := make([]*common.Address, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			t, err := b.source.BlockTime(gctx, e.Event.BlockNumber)
			if err != nil {
				return fmt.Errorf("get block %d time: %w", e.Event.BlockNumber, err)
			}
			times[i] = t
			if b.annotate {
				to, err := b.source.TransactionTarget(gctx, e.Event.TxHash)
				if err != nil {
					return fmt.Errorf("get tx %s: %w", e.Event.TxHash.Hex(), err)
				}
				targets[i] = to
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = b.format.Line(e, times[i], targets[i])
	}
	return lines, nil
}

func sortByBlock(events []types.TransferEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].BlockNumber < events[j].BlockNumber
	})
}
