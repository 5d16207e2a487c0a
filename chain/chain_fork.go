package chain

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	gethState "github.com/crytic/medusa-geth/core/state"
	gethTypes "github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/pathfinder/chain/types"
)

// ChainFork is a throwaway continuation of a TestChain from its head. Messages applied to a fork change only the
// fork's private state, never the chain's. Each applied message is executed in its own block following the chain
// head, but fork blocks are not hashed into the chain nor persisted.
//
// A ChainFork is not safe for concurrent use, but distinct forks of the same chain may be used concurrently as long
// as the chain itself is not mutated meanwhile.
type ChainFork struct {
	// chain is the chain the fork was created from.
	chain *TestChain

	// state is the fork's private world state.
	state *gethState.StateDB

	// header is the header of the most recent fork block.
	header *gethTypes.Header

	// headerHash is the hash of header.
	headerHash common.Hash

	// blockHashes holds the hashes of fork blocks, keyed by block number.
	blockHashes map[uint64]common.Hash

	// vmConfigExtensions defines the EVM extensions of the fork. They are not shared with the chain or other forks.
	vmConfigExtensions *vm.ConfigExtensions

	// messageCount is the amount of messages applied to the fork so far.
	messageCount int
}

// Fork creates a ChainFork from the chain's committed head.
func (t *TestChain) Fork() (*ChainFork, error) {
	head := t.Head()
	state, err := gethState.New(head.Header.Root, t.stateDatabase)
	if err != nil {
		return nil, err
	}
	return &ChainFork{
		chain:       t,
		state:       state,
		header:      head.Header,
		headerHash:  head.Hash,
		blockHashes: make(map[uint64]common.Hash),

		vmConfigExtensions: t.testChainConfig.GetVMConfigExtensions(),
	}, nil
}

// getHash resolves block hashes, preferring fork blocks over committed ones.
func (f *ChainFork) getHash(n uint64) common.Hash {
	if hash, ok := f.blockHashes[n]; ok {
		return hash
	}
	return f.chain.getHash(n)
}

// NewMessage returns a message as TestChain.NewMessage does, using the sender's nonce in the fork.
func (f *ChainFork) NewMessage(from common.Address, to *common.Address, value *big.Int, data []byte) *core.Message {
	return newMessage(from, to, f.state.GetNonce(from), value, f.chain.testChainConfig.TransactionGasLimit, data)
}

// ApplyMessage executes msg in a new fork block and returns its results. As with TestChain.SendMessage, a message
// which reverts still produces results, and only messages which cannot be applied return an error.
func (f *ChainFork) ApplyMessage(msg *core.Message, additionalTracers ...*TestChainTracer) (*types.MessageResults, error) {
	cfg := f.chain.testChainConfig
	header := newChildHeader(f.header, f.headerHash, cfg.BlockGasLimit, cfg.BlockTimestampIncrement)
	headerHash := header.Hash()

	// Forks need their own deployment tracking, the chain's tracer is not shared across goroutines.
	router := NewTestChainTracerRouter()
	router.AddTracers(newTestChainDeploymentsTracer().NativeTracer())
	router.AddTracers(additionalTracers...)

	gasPool := new(core.GasPool).AddGas(header.GasLimit)
	blockContext := newTestChainBlockContext(f.getHash, header)
	results, err := applyMessage(f.state, f.chain.chainConfig, f.vmConfigExtensions, blockContext, headerHash, f.messageCount, 0, gasPool, msg, router)
	if err != nil {
		return nil, err
	}

	header.GasUsed = results.Receipt.GasUsed
	f.header = header
	f.headerHash = headerHash
	f.blockHashes[header.Number.Uint64()] = headerHash
	f.messageCount++
	return results, nil
}

// CallContract executes msg over the fork's state without keeping any of its changes.
func (f *ChainFork) CallContract(msg *core.Message, additionalTracers ...*TestChainTracer) (*core.ExecutionResult, error) {
	router := NewTestChainTracerRouter()
	router.AddTracers(additionalTracers...)
	return callContract(f.state, f.chain.chainConfig, f.vmConfigExtensions, newTestChainBlockContext(f.getHash, f.header), msg, router)
}

// HeadBlockNumber returns the block number of the most recent fork block.
func (f *ChainFork) HeadBlockNumber() uint64 {
	return f.header.Number.Uint64()
}

// GetBalance returns the balance of an account in the fork.
func (f *ChainFork) GetBalance(addr common.Address) *big.Int {
	return f.state.GetBalance(addr).ToBig()
}

// GetNonce returns the nonce of an account in the fork.
func (f *ChainFork) GetNonce(addr common.Address) uint64 {
	return f.state.GetNonce(addr)
}

// GetCode returns the code of an account in the fork.
func (f *ChainFork) GetCode(addr common.Address) []byte {
	return f.state.GetCode(addr)
}

// GetStorageAt returns the value of a contract storage slot in the fork.
func (f *ChainFork) GetStorageAt(addr common.Address, slot common.Hash) common.Hash {
	return f.state.GetState(addr, slot)
}
