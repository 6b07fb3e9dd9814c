package ethereum

import (
	"fmt"
	"math/big"

	"github.com/ava-labs/libevm/accounts/abi"
	"github.com/ava-labs/libevm/common"
	libevmtypes "github.com/ava-labs/libevm/core/types"

	"github.com/ava-labs/lst-ledger/internal/types"
)

// decodeBalancesUpdated maps either BalancesUpdated variant onto its arguments in
// declaration order, merging indexed topics back in.
func decodeBalancesUpdated(l *libevmtypes.Log) (types.BalancesUpdated, error) {
	if len(l.Topics) == 0 {
		return types.BalancesUpdated{}, fmt.Errorf("log %s/%d: no topics", l.TxHash.Hex(), l.Index)
	}
	var ev abi.Event
	switch l.Topics[0] {
	case legacyBalancesEvent.ID:
		ev = legacyBalancesEvent
	case slottedBalancesEvent.ID:
		ev = slottedBalancesEvent
	default:
		return types.BalancesUpdated{}, fmt.Errorf("log %s/%d: unexpected topic %s", l.TxHash.Hex(), l.Index, l.Topics[0].Hex())
	}

	fields, err := eventFields(ev, l)
	if err != nil {
		return types.BalancesUpdated{}, fmt.Errorf("decode BalancesUpdated in %s: %w", l.TxHash.Hex(), err)
	}
	return types.BalancesUpdated{
		LogBlock: l.BlockNumber,
		TxHash:   l.TxHash,
		Fields:   fields,
	}, nil
}

func eventFields(ev abi.Event, l *libevmtypes.Log) ([]*big.Int, error) {
	data, err := ev.Inputs.Unpack(l.Data)
	if err != nil {
		return nil, err
	}
	fields := make([]*big.Int, 0, len(ev.Inputs))
	topic, value := 1, 0
	for _, in := range ev.Inputs {
		if in.Indexed {
			if topic >= len(l.Topics) {
				return nil, fmt.Errorf("missing topic for %s", in.Name)
			}
			fields = append(fields, new(big.Int).SetBytes(l.Topics[topic].Bytes()))
			topic++
			continue
		}
		n, ok := data[value].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("field %s: unexpected type %T", in.Name, data[value])
		}
		fields = append(fields, n)
		value++
	}
	return fields, nil
}

func decodeTransfer(l *libevmtypes.Log) (types.TransferEvent, error) {
	ev := types.TransferEvent{
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}
	if len(l.Topics) != 3 || l.Topics[0] != transferEvent.ID {
		ev.Kind = types.EventUnknown
		if len(l.Topics) > 0 {
			ev.Name = l.Topics[0].Hex()
		}
		return ev, nil
	}

	data, err := transferEvent.Inputs.Unpack(l.Data)
	if err != nil {
		return types.TransferEvent{}, fmt.Errorf("decode Transfer in %s: %w", l.TxHash.Hex(), err)
	}
	amount, ok := data[0].(*big.Int)
	if !ok {
		return types.TransferEvent{}, fmt.Errorf("decode Transfer in %s: unexpected value %T", l.TxHash.Hex(), data[0])
	}
	ev.Kind = types.EventTransfer
	ev.Name = transferEvent.Name
	ev.From = common.BytesToAddress(l.Topics[1].Bytes())
	ev.To = common.BytesToAddress(l.Topics[2].Bytes())
	ev.Amount = amount
	return ev, nil
}
