package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ava-labs/lst-ledger/pkg/fixedpoint"
)

func TestDecodeLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		line      string
		wantBlock uint64
		wantErr   error
	}{
		{
			name:      "even padded hex",
			line:      `["0x0d9c4e","0x0de0b6b3a7640000","0x00","0x0de0b6b3a7640000"]`,
			wantBlock: 891982,
		},
		{
			name:      "unpadded hex",
			line:      `["0xd9c4e","0xde0b6b3a7640000","0x0","0xde0b6b3a7640000","0x6553f100"]`,
			wantBlock: 891982,
		},
		{name: "not json", line: `block 1`, wantErr: ErrMalformedLine},
		{name: "not integer", line: `["0x01","zz","0x00","0x01"]`, wantErr: ErrMalformedLine},
		{name: "short", line: `["0x01","0x02"]`, wantErr: ErrMalformedLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := DecodeLine([]byte(tt.line))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlock, c.BlockNumber())
		})
	}
}

func TestEncodeLine_PreservesFieldOrder(t *testing.T) {
	t.Parallel()
	c, err := DecodeLine([]byte(`["0xd9c4e","0x1","0x2","0x3","0x4","0x5"]`))
	require.NoError(t, err)
	line, err := EncodeLine(c)
	require.NoError(t, err)
	assert.Equal(t, `["0x0d9c4e","0x01","0x02","0x03","0x04","0x05"]`, string(line))
	assert.Equal(t, LayoutSlotted, c.Layout)
}

func TestReadWrite(t *testing.T) {
	t.Parallel()
	in := []Checkpoint{cp(t, 10, "1", "1"), cp(t, 20, "1.1", "1")}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))

	// blank lines are tolerated
	buf.WriteString("\n")
	out, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(10), out[0].BlockNumber())
	assert.Equal(t, uint64(20), out[1].BlockNumber())
	assert.Equal(t, 0, in[1].TotalUnderlying().Cmp(out[1].TotalUnderlying()))
}

func TestRead_ReportsLineNumber(t *testing.T) {
	t.Parallel()
	_, err := Read(bytes.NewBufferString("[\"0x01\",\"0x01\",\"0x00\",\"0x01\"]\nnope\n"))
	require.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "line 2")
}

func TestStore_AppendNeverRewrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "balances.jsonl")
	s := NewStore(path)

	_, err := s.Last()
	require.Error(t, err)

	require.NoError(t, s.Append([]Checkpoint{cp(t, 10, "1", "1")}))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Append([]Checkpoint{cp(t, 20, "1", "1"), cp(t, 30, "1", "1")}))
	require.NoError(t, s.Append(nil))
	all, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(all, first))

	last, err := s.Last()
	require.NoError(t, err)
	assert.Equal(t, uint64(30), last.BlockNumber())

	series, err := s.LoadSeries(zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())
}

func TestStore_LastEmptyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "balances.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := NewStore(path).Last()
	require.ErrorIs(t, err, ErrEmptyStore)
}

func TestStore_LoadSeriesReordersAndKeepsFirstPerBlock(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "balances.jsonl")
	s := NewStore(path)
	require.NoError(t, s.Append([]Checkpoint{cp(t, 100, "1.1", "1"), cp(t, 200, "1.2", "1")}))
	// resumed from an explicit block behind the tail
	require.NoError(t, s.Append([]Checkpoint{cp(t, 150, "1.15", "1"), cp(t, 200, "9", "1"), cp(t, 200, "8", "1")}))

	core, recorded := observer.New(zap.WarnLevel)
	series, err := s.LoadSeries(zap.New(core).Sugar())
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, uint64(100), series.First().BlockNumber())
	assert.Equal(t, uint64(200), series.Last().BlockNumber())
	assert.Equal(t, fixedpoint.MustUnits("1.2").String(), series.Last().TotalUnderlying().String())

	mid, err := series.Lookup(150)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.MustUnits("1.15").String(), mid.TotalUnderlying().String())

	logs := recorded.FilterMessage("ignoring repeated checkpoint blocks").All()
	require.Len(t, logs, 1)
	assert.Equal(t, int64(2), logs[0].ContextMap()["count"])

	raw, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, raw, 5, "loading must not rewrite the file")
}

func TestFirstPerBlock_OrderedInputUnchanged(t *testing.T) {
	t.Parallel()
	in := []Checkpoint{cp(t, 1, "1", "1"), cp(t, 2, "1", "1"), cp(t, 3, "1", "1")}
	out, dropped := firstPerBlock(in)
	assert.Equal(t, in, out)
	assert.Empty(t, dropped)
}
