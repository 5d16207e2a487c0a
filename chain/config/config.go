package config

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/pkg/errors"
)

// TestChainConfig represents the chain configuration.
type TestChainConfig struct {
	// CodeSizeCheckDisabled indicates whether the EVM should skip the contract code size limit when deploying.
	CodeSizeCheckDisabled bool `json:"codeSizeCheckDisabled"`

	// BlockGasLimit is the gas limit of every block produced by the chain.
	BlockGasLimit uint64 `json:"blockGasLimit"`

	// TransactionGasLimit is the gas limit given to each message sent to the chain.
	TransactionGasLimit uint64 `json:"transactionGasLimit"`

	// BlockTimestampIncrement is the number of seconds between consecutive blocks.
	BlockTimestampIncrement uint64 `json:"blockTimestampIncrement"`

	// InitialTimestamp is the timestamp of the first block after genesis.
	InitialTimestamp uint64 `json:"initialTimestamp"`
}

// Validate checks the chain configuration is usable.
func (t *TestChainConfig) Validate() error {
	if t.BlockGasLimit == 0 {
		return errors.New("chain config: block gas limit must be greater than zero")
	}
	if t.TransactionGasLimit == 0 {
		return errors.New("chain config: transaction gas limit must be greater than zero")
	}
	if t.TransactionGasLimit > t.BlockGasLimit {
		return errors.Errorf("chain config: transaction gas limit (%d) exceeds the block gas limit (%d)", t.TransactionGasLimit, t.BlockGasLimit)
	}
	return nil
}

// GetVMConfigExtensions derives a vm.ConfigExtensions from the TestChainConfig. Each call returns a fresh value, as
// the EVM may update its maps while executing.
func (t *TestChainConfig) GetVMConfigExtensions() *vm.ConfigExtensions {
	return &vm.ConfigExtensions{
		OverrideCodeSizeCheck:    t.CodeSizeCheckDisabled,
		AdditionalPrecompiles:    make(map[common.Address]vm.PrecompiledContract),
		ContractAddressOverrides: make(map[common.Hash]common.Address),
	}
}
