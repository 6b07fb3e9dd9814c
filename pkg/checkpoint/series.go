package checkpoint

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

var (
	ErrEmptySeries           = errors.New("checkpoint series is empty")
	ErrUnsorted              = errors.New("checkpoint series is not strictly ascending by block")
	ErrBeforeFirstCheckpoint = errors.New("requested block before first checkpoint")
)

// Series is an immutable, strictly block-ascending sequence of checkpoints.
type Series struct {
	log         *zap.SugaredLogger
	checkpoints []Checkpoint
	onStale     func()
}

// SeriesOption configures a Series.
type SeriesOption func(*Series)

// WithStaleHook registers a callback invoked every time a lookup falls past the last
// checkpoint. It is used to feed metrics.
func WithStaleHook(fn func()) SeriesOption {
	return func(s *Series) {
		s.onStale = fn
	}
}

// NewSeries validates ordering and wraps the checkpoints. The slice is not copied and must
// not be modified afterwards.
func NewSeries(log *zap.SugaredLogger, cps []Checkpoint, opts ...SeriesOption) (*Series, error) {
	if len(cps) == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(cps); i++ {
		if cps[i].BlockNumber() <= cps[i-1].BlockNumber() {
			return nil, fmt.Errorf("%w: index %d block %d follows block %d",
				ErrUnsorted, i, cps[i].BlockNumber(), cps[i-1].BlockNumber())
		}
	}
	s := &Series{log: log, checkpoints: cps}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Len returns the number of checkpoints.
func (s *Series) Len() int { return len(s.checkpoints) }

// First returns the earliest checkpoint.
func (s *Series) First() Checkpoint { return s.checkpoints[0] }

// Last returns the latest checkpoint.
func (s *Series) Last() Checkpoint { return s.checkpoints[len(s.checkpoints)-1] }

// Lookup returns the checkpoint with the greatest block number <= block.
//
// Blocks past the last checkpoint return the last checkpoint with a stale-data warning.
// Blocks before the first checkpoint have no valid rate and return ErrBeforeFirstCheckpoint.
func (s *Series) Lookup(block uint64) (Checkpoint, error) {
	last := s.Last()
	if block > last.BlockNumber() {
		s.log.Warnw("may need to update balances - using last available",
			"block", block,
			"lastBlock", last.BlockNumber(),
		)
		if s.onStale != nil {
			s.onStale()
		}
		return last, nil
	}
	if first := s.First(); block < first.BlockNumber() {
		return Checkpoint{}, fmt.Errorf("%w: block %d < %d", ErrBeforeFirstCheckpoint, block, first.BlockNumber())
	}
	// smallest index whose block is > block, minus one
	i := sort.Search(len(s.checkpoints), func(i int) bool {
		return s.checkpoints[i].BlockNumber() > block
	})
	return s.checkpoints[i-1], nil
}
