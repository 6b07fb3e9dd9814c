package checkpoint

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"

	"github.com/ava-labs/libevm/common/math"
	"go.uber.org/zap"

	"github.com/ava-labs/lst-ledger/pkg/utils"
)

const maxLineSize = 1 << 20

var (
	ErrEmptyStore    = errors.New("checkpoint store has no records")
	ErrMalformedLine = errors.New("malformed checkpoint line")
)

// EncodeLine renders a checkpoint as one JSON array of hex strings, without a newline.
func EncodeLine(c Checkpoint) ([]byte, error) {
	fields := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = utils.EncodeEvenHex(f)
	}
	return json.Marshal(fields)
}

// DecodeLine parses one stored line. Fields may be hex ("0x"-prefixed, any padding) or
// decimal strings.
func DecodeLine(line []byte) (Checkpoint, error) {
	var raw []string
	if err := json.Unmarshal(line, &raw); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	fields := make([]*big.Int, len(raw))
	for i, s := range raw {
		v, ok := math.ParseBig256(s)
		if !ok {
			return Checkpoint{}, fmt.Errorf("%w: field %d %q is not an integer", ErrMalformedLine, i, s)
		}
		fields[i] = v
	}
	c, err := New(fields)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	return c, nil
}

// Read decodes every non-empty line of r in order.
func Read(r io.Reader) ([]Checkpoint, error) {
	var cps []Checkpoint
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		c, err := DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		cps = append(cps, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan checkpoints: %w", err)
	}
	return cps, nil
}

// Write appends one line per checkpoint to w.
func Write(w io.Writer, cps []Checkpoint) error {
	var buf bytes.Buffer
	for _, c := range cps {
		line, err := EncodeLine(c)
		if err != nil {
			return fmt.Errorf("encode checkpoint at block %d: %w", c.BlockNumber(), err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Store is the on-disk JSONL checkpoint file. Existing lines are never rewritten.
type Store struct {
	path string
}

// NewStore returns a store backed by path. The file need not exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the whole file.
func (s *Store) Load() ([]Checkpoint, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	defer f.Close()
	cps, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return cps, nil
}

// LoadSeries reads the whole file into a Series. A file appended behind its own tail, or
// holding several records for one block, is put back in block order keeping the first
// record written for each block.
func (s *Store) LoadSeries(log *zap.SugaredLogger, opts ...SeriesOption) (*Series, error) {
	cps, err := s.Load()
	if err != nil {
		return nil, err
	}
	cps, dropped := firstPerBlock(cps)
	if len(dropped) > 0 {
		log.Warnw("ignoring repeated checkpoint blocks",
			"path", s.path,
			"count", len(dropped),
			"blocks", dropped,
		)
	}
	series, err := NewSeries(log, cps, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return series, nil
}

// firstPerBlock stable-sorts cps by block and drops every record after the first at each
// block. It returns the kept records and the blocks that had extras.
func firstPerBlock(cps []Checkpoint) ([]Checkpoint, []uint64) {
	sorted := slices.Clone(cps)
	slices.SortStableFunc(sorted, func(a, b Checkpoint) int {
		return cmp.Compare(a.BlockNumber(), b.BlockNumber())
	})
	var dropped []uint64
	out := sorted[:0]
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].BlockNumber() == c.BlockNumber() {
			if len(dropped) == 0 || dropped[len(dropped)-1] != c.BlockNumber() {
				dropped = append(dropped, c.BlockNumber())
			}
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// Last returns the final record in the file, the resumption sentinel for the harvester.
func (s *Store) Last() (Checkpoint, error) {
	cps, err := s.Load()
	if err != nil {
		return Checkpoint{}, err
	}
	if len(cps) == 0 {
		return Checkpoint{}, fmt.Errorf("%s: %w", s.path, ErrEmptyStore)
	}
	return cps[len(cps)-1], nil
}

// Append writes cps after the existing content, creating the file if needed.
func (s *Store) Append(cps []Checkpoint) error {
	if len(cps) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint store for append: %w", err)
	}
	if err := Write(f, cps); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return f.Close()
}
