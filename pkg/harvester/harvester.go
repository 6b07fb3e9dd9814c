// Package harvester incrementally appends BalancesUpdated checkpoints to the JSONL store.
//
// A run resolves its block span (explicit bounds, else the store's last record and the chain
// head), queries the node one bounded window at a time, sorts the results by block, drops
// the sentinel record that is already on disk, and appends the rest. Existing lines are never
// rewritten, so an interrupted run loses at most the batch in flight.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ava-labs/lst-ledger/internal/chainclient"
	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/blockrange"
	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
)

var ErrNoResumePoint = errors.New("cannot derive from block from checkpoint store")

// Source is the node surface the harvester needs.
type Source interface {
	chainclient.HeadReader
	chainclient.BalancesReader
}

// Store is the append-only checkpoint file.
type Store interface {
	Last() (checkpoint.Checkpoint, error)
	Append(cps []checkpoint.Checkpoint) error
}

// Config bounds a run. Nil bounds are derived: FromBlock from the store's last record,
// ToBlock from the chain head.
type Config struct {
	FromBlock *uint64
	ToBlock   *uint64
	MaxWindow uint64
}

// Result summarises a run.
type Result struct {
	From            uint64
	To              uint64
	Fetched         int
	DroppedSentinel bool
	Appended        []checkpoint.Checkpoint
}

type Harvester struct {
	log     *zap.SugaredLogger
	source  Source
	store   Store
	metrics *metrics.Metrics
}

// Option configures the Harvester.
type Option func(*Harvester)

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harvester) {
		h.metrics = m
	}
}

func New(log *zap.SugaredLogger, source Source, store Store, opts ...Option) *Harvester {
	h := &Harvester{log: log, source: source, store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run performs one incremental harvest.
func (h *Harvester) Run(ctx context.Context, cfg Config) (Result, error) {
	maxWindow := cfg.MaxWindow
	if maxWindow == 0 {
		maxWindow = blockrange.DefaultMaxWindow
	}

	var (
		res      Result
		sentinel bool
	)
	if cfg.FromBlock != nil {
		res.From = *cfg.FromBlock
		h.log.Infof("from block: %d", res.From)
	} else {
		last, err := h.store.Last()
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrNoResumePoint, err)
		}
		res.From = last.BlockNumber()
		sentinel = true
		h.log.Infof("from block: not specified, resuming from last stored checkpoint %d", res.From)
	}

	if cfg.ToBlock != nil {
		res.To = *cfg.ToBlock
		h.log.Infof("to block: %d", res.To)
	} else {
		head, err := h.source.BlockNumber(ctx)
		if err != nil {
			return res, fmt.Errorf("failed to get latest block height: %w", err)
		}
		res.To = head
		h.log.Infof("to block: not specified, using chain head %d", res.To)
	}

	if res.From > res.To {
		h.log.Infow("no new events", "from", res.From, "to", res.To)
		return res, nil
	}

	h.log.Infow("retrieving events", "from", res.From, "to", res.To, "maxWindow", maxWindow)
	events, err := blockrange.Fetch(ctx, res.From, res.To, maxWindow,
		func(ctx context.Context, r blockrange.Range) ([]types.BalancesUpdated, error) {
			evs, err := h.source.BalancesUpdated(ctx, r)
			if err != nil {
				return nil, err
			}
			h.metrics.RecordWindow(len(evs))
			h.log.Debugw("queried window", "range", r.String(), "events", len(evs))
			return evs, nil
		})
	if err != nil {
		return res, fmt.Errorf("retrieve balances events: %w", err)
	}
	res.Fetched = len(events)

	cps, err := toCheckpoints(events)
	if err != nil {
		return res, err
	}
	sort.SliceStable(cps, func(i, j int) bool {
		return cps[i].BlockNumber() < cps[j].BlockNumber()
	})

	// Only the first record can be the one already on disk. A second BalancesUpdated in the
	// sentinel block would be kept.
	if sentinel && len(cps) > 0 && cps[0].BlockNumber() == res.From {
		cps = cps[1:]
		res.DroppedSentinel = true
		h.log.Debugw("dropped sentinel record already in store", "block", res.From)
	}

	if len(cps) == 0 {
		h.log.Infow("no new events", "from", res.From, "to", res.To)
		return res, nil
	}

	if !sentinel {
		h.warnIfBehindTail(cps[0])
	}

	if err := h.store.Append(cps); err != nil {
		return res, fmt.Errorf("append checkpoints: %w", err)
	}
	res.Appended = cps
	tail := cps[len(cps)-1].BlockNumber()
	h.metrics.RecordAppend(len(cps), tail)
	h.log.Infow("appended checkpoints", "count", len(cps), "firstBlock", cps[0].BlockNumber(), "lastBlock", tail)
	return res, nil
}

// warnIfBehindTail flags explicit-from runs that would write blocks the store already covers.
func (h *Harvester) warnIfBehindTail(first checkpoint.Checkpoint) {
	last, err := h.store.Last()
	if err != nil {
		return
	}
	if first.BlockNumber() <= last.BlockNumber() {
		h.log.Warnw("appending checkpoints at or below the stored tail",
			"firstBlock", first.BlockNumber(),
			"lastBlock", last.BlockNumber(),
		)
	}
}

func toCheckpoints(events []types.BalancesUpdated) ([]checkpoint.Checkpoint, error) {
	cps := make([]checkpoint.Checkpoint, 0, len(events))
	for _, ev := range events {
		c, err := checkpoint.New(ev.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode BalancesUpdated in tx %s: %w", ev.TxHash.Hex(), err)
		}
		cps = append(cps, c)
	}
	return cps, nil
}
