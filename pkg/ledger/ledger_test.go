package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/libevm/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/blockrange"
	"github.com/ava-labs/lst-ledger/pkg/checkpoint"
	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
)

var (
	alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	dex     = common.HexToAddress("0x000000000000000000000000000000000000d3e0")
	genesis = time.Date(2023, time.March, 7, 9, 30, 0, 0, time.UTC)
)

// fakeSource serves canned transfers and derives block times from the block number.
// Lower blocks answer slower so completion order is the reverse of block order.
type fakeSource struct {
	mu       sync.Mutex
	events   []types.TransferEvent
	ranges   []blockrange.Range
	timeErr  error
	maxBlock uint64
}

func (f *fakeSource) Transfers(_ context.Context, r blockrange.Range, filter types.TransferFilter) ([]types.TransferEvent, error) {
	f.mu.Lock()
	f.ranges = append(f.ranges, r)
	f.mu.Unlock()

	from, to := NewAccounts(filter.From...), NewAccounts(filter.To...)
	var out []types.TransferEvent
	for _, ev := range f.events {
		if ev.BlockNumber < r.From || ev.BlockNumber > r.To {
			continue
		}
		if len(filter.From) > 0 && !from.Contains(ev.From) {
			continue
		}
		if len(filter.To) > 0 && !to.Contains(ev.To) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeSource) BlockTime(ctx context.Context, n uint64) (time.Time, error) {
	if f.timeErr != nil {
		return time.Time{}, f.timeErr
	}
	if f.maxBlock >= n {
		select {
		case <-time.After(time.Duration(f.maxBlock-n) * time.Millisecond):
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
	return genesis.Add(time.Duration(n) * 12 * time.Second), nil
}

func (f *fakeSource) TransactionTarget(_ context.Context, _ common.Hash) (*common.Address, error) {
	return &dex, nil
}

func transfer(block uint64, tx byte, from, to common.Address, amount string) types.TransferEvent {
	return types.TransferEvent{
		Kind:        types.EventTransfer,
		Name:        "Transfer",
		TxHash:      common.BytesToHash([]byte{tx}),
		BlockNumber: block,
		From:        from,
		To:          to,
		Amount:      fixedpoint.MustUnits(amount),
	}
}

// rates builds a series of checkpoints (block, total, supply) with supply fixed at 1.
func rates(t *testing.T, blockRates ...any) *checkpoint.Series {
	t.Helper()
	require.Zero(t, len(blockRates)%2)
	var cps []checkpoint.Checkpoint
	for i := 0; i < len(blockRates); i += 2 {
		c, err := checkpoint.New([]*big.Int{
			new(big.Int).SetUint64(blockRates[i].(uint64)),
			fixedpoint.MustUnits(blockRates[i+1].(string)),
			new(big.Int),
			fixedpoint.MustUnits("1"),
		})
		require.NoError(t, err)
		cps = append(cps, c)
	}
	s, err := checkpoint.NewSeries(zap.NewNop().Sugar(), cps)
	require.NoError(t, err)
	return s
}

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestBuild_ReceiveThenSend(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	b := NewBuilder(zap.NewNop().Sugar(), src, rates(t, uint64(100), "1.1", uint64(200), "1.2"), NewAccounts(alice))

	res, err := b.Build(context.Background(), []types.TransferEvent{
		transfer(250, 2, alice, bob, "4"),
		transfer(150, 1, bob, alice, "10"),
	})
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.MustUnits("6"), res.Position.Balance)
	assert.Equal(t, fixedpoint.MustUnits("6.2"), res.Position.CostBasis)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, ClassInflow, res.Entries[0].Class)
	assert.Equal(t, uint64(100), res.Entries[0].RateBlock)
	assert.Equal(t, fixedpoint.MustUnits("11"), res.Entries[0].Backing)
	assert.Equal(t, ClassOutflow, res.Entries[1].Class)
	assert.Equal(t, fixedpoint.MustUnits("4.8"), res.Entries[1].Backing)

	require.Len(t, res.Lines, 2)
	assert.Equal(t,
		common.BytesToHash([]byte{1}).Hex()+" 07/Mar/2023 10:00:00 <-   10.000 rETH Rate@100: 1.1000 ->   11.000 ETH",
		res.Lines[0])
	assert.Equal(t,
		common.BytesToHash([]byte{2}).Hex()+" 07/Mar/2023 10:20:00 ->    4.000 rETH Rate@200: 1.2000 <-    4.800 ETH",
		res.Lines[1])
}

func TestBuild_InterAccountLoggedOncePerTx(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	b := NewBuilder(log, &fakeSource{}, rates(t, uint64(1), "1"), NewAccounts(alice, bob))

	res, err := b.Build(context.Background(), []types.TransferEvent{
		transfer(10, 7, alice, bob, "1"),
		transfer(10, 7, bob, alice, "1"),
		transfer(10, 7, alice, bob, "2"),
		transfer(11, 8, alice, bob, "1"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Zero(t, res.Position.Balance.Sign())
	assert.Equal(t, 2, logs.FilterMessage("ignoring inter-account transaction").Len())
	assert.Equal(t, 1, logs.FilterMessage("ignoring inter-account transaction").
		FilterField(zap.String("txHash", common.BytesToHash([]byte{7}).Hex())).Len())
}

func TestBuild_ForeignAndUnknownSkipped(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	unknown := transfer(12, 3, alice, bob, "1")
	unknown.Kind = types.EventUnknown
	unknown.Name = "0xdeadbeef"

	b := NewBuilder(log, &fakeSource{}, rates(t, uint64(1), "1"), NewAccounts(alice), WithMetrics(m))
	res, err := b.Build(context.Background(), []types.TransferEvent{
		transfer(10, 1, carol, bob, "1"),
		unknown,
		transfer(13, 4, bob, alice, "2"),
	})
	require.NoError(t, err)
	assert.Len(t, res.Lines, 1)
	assert.Equal(t, fixedpoint.MustUnits("2"), res.Position.Balance)

	wrong := logs.FilterMessage("transfer from/to wrong account").All()
	require.Len(t, wrong, 1)
	assert.Equal(t, zapcore.ErrorLevel, wrong[0].Level)
	assert.Equal(t, carol.Hex(), wrong[0].ContextMap()["from"])
	assert.Equal(t, 1, logs.FilterMessage("unknown event").Len())

	expected := `
# HELP lst_ledger_ledger_events_total Transfer events by classification
# TYPE lst_ledger_ledger_events_total counter
lst_ledger_ledger_events_total{class="foreign"} 1
lst_ledger_ledger_events_total{class="inflow"} 1
lst_ledger_ledger_events_total{class="unknown"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lst_ledger_ledger_events_total"))
}

func TestBuild_OutputFollowsBlockOrder(t *testing.T) {
	t.Parallel()
	src := &fakeSource{maxBlock: 40}
	var events []types.TransferEvent
	for blk := uint64(40); blk >= 1; blk-- {
		events = append(events, transfer(blk, byte(blk), bob, alice, "1"))
	}
	b := NewBuilder(zap.NewNop().Sugar(), src, rates(t, uint64(1), "1"), NewAccounts(alice), WithConcurrency(8))

	res, err := b.Build(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, res.Lines, 40)
	for i, line := range res.Lines {
		assert.Contains(t, line, common.BytesToHash([]byte{byte(i + 1)}).Hex())
	}
}

func TestBuild_BeforeFirstCheckpointHasNoOutput(t *testing.T) {
	t.Parallel()
	b := NewBuilder(zap.NewNop().Sugar(), &fakeSource{}, rates(t, uint64(100), "1"), NewAccounts(alice))

	res, err := b.Build(context.Background(), []types.TransferEvent{
		transfer(150, 1, bob, alice, "1"),
		transfer(50, 2, bob, alice, "1"),
	})
	require.ErrorIs(t, err, checkpoint.ErrBeforeFirstCheckpoint)
	assert.Empty(t, res.Lines)
}

func TestBuild_BlockTimeFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	b := NewBuilder(zap.NewNop().Sugar(), &fakeSource{timeErr: boom}, rates(t, uint64(1), "1"), NewAccounts(alice))

	_, err := b.Build(context.Background(), []types.TransferEvent{transfer(5, 1, bob, alice, "1")})
	require.ErrorIs(t, err, boom)
}

func TestBuild_Annotate(t *testing.T) {
	t.Parallel()
	b := NewBuilder(zap.NewNop().Sugar(), &fakeSource{}, rates(t, uint64(1), "1"), NewAccounts(alice), WithTxTargets())

	res, err := b.Build(context.Background(), []types.TransferEvent{transfer(5, 1, bob, alice, "1")})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Contains(t, res.Lines[0], " via "+dex.Hex())
}

func TestCollect_MergesSentAndReceived(t *testing.T) {
	t.Parallel()
	src := &fakeSource{events: []types.TransferEvent{
		transfer(250_000, 3, alice, bob, "1"),
		transfer(5, 1, bob, alice, "2"),
		transfer(100_001, 2, alice, alice, "1"),
		transfer(7, 9, carol, bob, "1"),
	}}
	b := NewBuilder(zap.NewNop().Sugar(), src, rates(t, uint64(1), "1"), NewAccounts(alice))

	events, err := b.Collect(context.Background(), 0, 250_000, 100_000)
	require.NoError(t, err)

	got := make([]uint64, len(events))
	for i, ev := range events {
		got[i] = ev.BlockNumber
	}
	// the self-transfer matches both queries
	assert.Equal(t, []uint64{5, 100_001, 100_001, 250_000}, got)
	assert.Len(t, src.ranges, 6)
}
