package chain

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	"github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/core/vm"
)

// newTestChainBlockContext obtains a vm.BlockContext for executing messages in a block with the given header. Block
// hashes are resolved through getHash.
func newTestChainBlockContext(getHash vm.GetHashFunc, header *types.Header) vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  new(big.Int).Set(header.Difficulty),
		BaseFee:     new(big.Int).Set(header.BaseFee),
		BlobBaseFee: big.NewInt(1),
		GasLimit:    header.GasLimit,
		Random:      &header.MixDigest,
	}
}

// newChildHeader returns the header of an empty block following parent.
func newChildHeader(parent *types.Header, parentHash common.Hash, gasLimit uint64, timeIncrement uint64) *types.Header {
	return &types.Header{
		ParentHash:  parentHash,
		UncleHash:   types.EmptyUncleHash,
		Root:        parent.Root,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Bloom:       types.Bloom{},
		GasLimit:    gasLimit,
		GasUsed:     0,
		Extra:       []byte{},
		Nonce:       types.BlockNonce{},
		Coinbase:    parent.Coinbase,
		Difficulty:  common.Big0,
		Number:      new(big.Int).Add(parent.Number, common.Big1),
		Time:        parent.Time + timeIncrement,
		MixDigest:   parentHash,
		BaseFee:     new(big.Int).Set(parent.BaseFee),
	}
}
