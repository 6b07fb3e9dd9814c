package ethereum

import (
	"strings"

	"github.com/ava-labs/libevm/accounts/abi"
	"github.com/ava-labs/libevm/crypto"
)

const (
	storageJSON = `[{"type":"function","name":"getAddress","stateMutability":"view",
		"inputs":[{"name":"key","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`

	tokenJSON = `[
		{"type":"function","name":"getExchangeRate","stateMutability":"view","inputs":[],
			"outputs":[{"name":"","type":"uint256"}]},
		{"type":"event","name":"Transfer","anonymous":false,"inputs":[
			{"name":"from","type":"address","indexed":true},
			{"name":"to","type":"address","indexed":true},
			{"name":"value","type":"uint256","indexed":false}]}]`

	// BalancesUpdated(block, totalEth, stakingEth, rethSupply, time)
	legacyBalancesJSON = `[{"type":"event","name":"BalancesUpdated","anonymous":false,"inputs":[
		{"name":"block","type":"uint256","indexed":false},
		{"name":"totalEth","type":"uint256","indexed":false},
		{"name":"stakingEth","type":"uint256","indexed":false},
		{"name":"rethSupply","type":"uint256","indexed":false},
		{"name":"time","type":"uint256","indexed":false}]}]`

	slottedBalancesJSON = `[{"type":"event","name":"BalancesUpdated","anonymous":false,"inputs":[
		{"name":"block","type":"uint256","indexed":true},
		{"name":"slotTimestamp","type":"uint256","indexed":false},
		{"name":"totalEth","type":"uint256","indexed":false},
		{"name":"stakingEth","type":"uint256","indexed":false},
		{"name":"rethSupply","type":"uint256","indexed":false},
		{"name":"blockTimestamp","type":"uint256","indexed":false}]}]`

	ensRegistryJSON = `[{"type":"function","name":"resolver","stateMutability":"view",
		"inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`

	ensResolverJSON = `[{"type":"function","name":"addr","stateMutability":"view",
		"inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`
)

var (
	storageABI         = mustParse(storageJSON)
	tokenABI           = mustParse(tokenJSON)
	legacyBalancesABI  = mustParse(legacyBalancesJSON)
	slottedBalancesABI = mustParse(slottedBalancesJSON)
	ensRegistryABI     = mustParse(ensRegistryJSON)
	ensResolverABI     = mustParse(ensResolverJSON)

	transferEvent        = tokenABI.Events["Transfer"]
	legacyBalancesEvent  = legacyBalancesABI.Events["BalancesUpdated"]
	slottedBalancesEvent = slottedBalancesABI.Events["BalancesUpdated"]
)

func mustParse(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}

// registryKey is the RocketStorage slot holding a contract's address.
func registryKey(name string) [32]byte {
	return crypto.Keccak256Hash([]byte("contract.address" + name))
}
