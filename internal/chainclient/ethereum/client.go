// Package ethereum implements chainclient.ChainClient against an Ethereum JSON-RPC node
// for the Rocket Pool rETH contracts.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	libevm "github.com/ava-labs/libevm"
	"github.com/ava-labs/libevm/accounts/abi"
	"github.com/ava-labs/libevm/common"
	libevmtypes "github.com/ava-labs/libevm/core/types"
	"github.com/ava-labs/libevm/ethclient"
	"github.com/ava-labs/libevm/rpc"

	"github.com/ava-labs/lst-ledger/internal/chainclient"
	"github.com/ava-labs/lst-ledger/internal/types"
	"github.com/ava-labs/lst-ledger/pkg/blockrange"
	"github.com/ava-labs/lst-ledger/pkg/metrics"
)

var (
	ErrContractNotFound = errors.New("contract not registered")
	ErrNameNotFound     = errors.New("name not resolved")
)

// Client wraps the underlying RPC and eth clients.
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	cfg     Config
	token   common.Address
	balance []common.Address
	metrics *metrics.Metrics // nil if metrics disabled
}

var _ chainclient.ChainClient = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithMetrics enables metrics collection for the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New dials url and resolves the token and balances contracts through the registry.
func New(ctx context.Context, url string, cfg Config, opts ...Option) (*Client, error) {
	r, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	client := &Client{
		rpc: r,
		eth: ethclient.NewClient(r),
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.token, err = client.registryAddress(ctx, cfg.TokenKey); err != nil {
		r.Close()
		return nil, err
	}
	client.balance = cfg.BalancesContracts
	if len(client.balance) == 0 {
		addr, err := client.registryAddress(ctx, cfg.BalancesKey)
		if err != nil {
			r.Close()
			return nil, err
		}
		client.balance = []common.Address{addr}
	}
	return client, nil
}

// TokenAddress returns the resolved claim-token contract.
func (c *Client) TokenAddress() common.Address { return c.token }

// BalancesAddresses returns the contracts queried for BalancesUpdated events.
func (c *Client) BalancesAddresses() []common.Address { return c.balance }

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.observe("BlockNumber", func() (err error) {
		n, err = c.eth.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get block number: %w", err)
	}
	return n, nil
}

func (c *Client) BalancesUpdated(ctx context.Context, r blockrange.Range) ([]types.BalancesUpdated, error) {
	logs, err := c.filterLogs(ctx, r, c.balance, [][]common.Hash{{legacyBalancesEvent.ID, slottedBalancesEvent.ID}})
	if err != nil {
		return nil, fmt.Errorf("get BalancesUpdated logs %s: %w", r, err)
	}
	out := make([]types.BalancesUpdated, 0, len(logs))
	for i := range logs {
		ev, err := decodeBalancesUpdated(&logs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) Transfers(ctx context.Context, r blockrange.Range, f types.TransferFilter) ([]types.TransferEvent, error) {
	topics := [][]common.Hash{{transferEvent.ID}, addressTopics(f.From)}
	if len(f.To) > 0 {
		topics = append(topics, addressTopics(f.To))
	}
	logs, err := c.filterLogs(ctx, r, []common.Address{c.token}, topics)
	if err != nil {
		return nil, fmt.Errorf("get Transfer logs %s: %w", r, err)
	}
	out := make([]types.TransferEvent, 0, len(logs))
	for i := range logs {
		ev, err := decodeTransfer(&logs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	var t time.Time
	err := c.observe("HeaderByNumber", func() error {
		h, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return err
		}
		t = time.Unix(int64(h.Time), 0).UTC() //nolint:gosec // block timestamps fit int64
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("get header %d: %w", number, err)
	}
	return t, nil
}

func (c *Client) TransactionTarget(ctx context.Context, hash common.Hash) (*common.Address, error) {
	var to *common.Address
	err := c.observe("TransactionByHash", func() error {
		tx, _, err := c.eth.TransactionByHash(ctx, hash)
		if err != nil {
			return err
		}
		to = tx.To()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", hash.Hex(), err)
	}
	return to, nil
}

func (c *Client) ExchangeRate(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, c.token, tokenABI, "getExchangeRate")
	if err != nil {
		return nil, fmt.Errorf("get exchange rate: %w", err)
	}
	rate, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("get exchange rate: unexpected output %T", out[0])
	}
	return rate, nil
}

// ResolveAccount accepts a hex address as-is and otherwise resolves name through ENS.
func (c *Client) ResolveAccount(ctx context.Context, name string) (common.Address, error) {
	if common.IsHexAddress(name) {
		return common.HexToAddress(name), nil
	}
	if !strings.Contains(name, ".") {
		return common.Address{}, fmt.Errorf("%q is neither an address nor a name: %w", name, ErrNameNotFound)
	}

	node := [32]byte(namehash(name))
	resolver, err := c.callAddress(ctx, c.cfg.ENSRegistryAddress, ensRegistryABI, "resolver", node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("resolve %s: no resolver: %w", name, ErrNameNotFound)
	}
	addr, err := c.callAddress(ctx, resolver, ensResolverABI, "addr", node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("resolve %s: %w", name, ErrNameNotFound)
	}
	return addr, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) registryAddress(ctx context.Context, key string) (common.Address, error) {
	addr, err := c.callAddress(ctx, c.cfg.StorageAddress, storageABI, "getAddress", registryKey(key))
	if err != nil {
		return common.Address{}, fmt.Errorf("get registry address %s: %w", key, err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: %w", key, ErrContractNotFound)
	}
	return addr, nil
}

func (c *Client) callAddress(ctx context.Context, to common.Address, a abi.ABI, method string, args ...any) (common.Address, error) {
	out, err := c.call(ctx, to, a, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected output %T", method, out[0])
	}
	return addr, nil
}

func (c *Client) call(ctx context.Context, to common.Address, a abi.ABI, method string, args ...any) ([]any, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	var raw []byte
	err = c.observe("CallContract", func() (err error) {
		raw, err = c.eth.CallContract(ctx, libevm.CallMsg{To: &to, Data: data}, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := a.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpack %s: empty output", method)
	}
	return out, nil
}

func (c *Client) filterLogs(ctx context.Context, r blockrange.Range, addrs []common.Address, topics [][]common.Hash) ([]libevmtypes.Log, error) {
	var logs []libevmtypes.Log
	err := c.observe("FilterLogs", func() (err error) {
		logs, err = c.eth.FilterLogs(ctx, libevm.FilterQuery{
			FromBlock: new(big.Int).SetUint64(r.From),
			ToBlock:   new(big.Int).SetUint64(r.To),
			Addresses: addrs,
			Topics:    topics,
		})
		return err
	})
	return logs, err
}

// observe runs fn as one metered RPC call.
func (c *Client) observe(method string, fn func() error) error {
	start := time.Now()
	c.metrics.IncRPCInFlight()
	defer c.metrics.DecRPCInFlight()

	err := fn()
	c.metrics.RecordRPCCall(method, err, time.Since(start).Seconds())
	return err
}

func addressTopics(addrs []common.Address) []common.Hash {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]common.Hash, len(addrs))
	for i, a := range addrs {
		out[i] = common.BytesToHash(a.Bytes())
	}
	return out
}
