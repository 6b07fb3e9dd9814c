// Package blockrange splits inclusive block spans into query windows that respect the
// block-span limit of eth_getLogs providers.
package blockrange

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxWindow is the default span passed to Split.
const DefaultMaxWindow uint64 = 100_000

var (
	ErrInvalidRange  = errors.New("from block is greater than to block")
	ErrInvalidWindow = errors.New("max window must be greater than zero")
)

// Range is an inclusive block interval.
type Range struct {
	From uint64
	To   uint64
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.From, r.To)
}

// Split covers [from, to] with consecutive ranges. The first range spans maxWindow+1 blocks
// and every later one at most maxWindow, so window ends sit at from+k*maxWindow. For example
// [0,250000] with a window of 100000 yields [0,100000], [100001,200000] and [200001,250000].
func Split(from, to, maxWindow uint64) ([]Range, error) {
	if maxWindow == 0 {
		return nil, ErrInvalidWindow
	}
	if from > to {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, from, to)
	}
	end := to
	if to-from > maxWindow {
		end = from + maxWindow
	}
	out := []Range{{From: from, To: end}}
	for end < to {
		start := end + 1
		end = to
		if to-start >= maxWindow {
			end = start + maxWindow - 1
		}
		out = append(out, Range{From: start, To: end})
	}
	return out, nil
}

// Fetch calls fn once per window of [from, to], sequentially and in ascending order, and
// concatenates the results. The first error aborts the remaining windows.
func Fetch[T any](
	ctx context.Context,
	from, to, maxWindow uint64,
	fn func(ctx context.Context, r Range) ([]T, error),
) ([]T, error) {
	ranges, err := Split(from, to, maxWindow)
	if err != nil {
		return nil, err
	}
	var out []T
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := fn(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("fetch range %s: %w", r, err)
		}
		out = append(out, items...)
	}
	return out, nil
}
