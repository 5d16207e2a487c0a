package chain

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/crytic/medusa-geth/common"
	gethMath "github.com/crytic/medusa-geth/common/math"
	"github.com/crytic/medusa-geth/core"
	"github.com/crytic/medusa-geth/core/rawdb"
	gethState "github.com/crytic/medusa-geth/core/state"
	"github.com/crytic/medusa-geth/core/tracing"
	gethTypes "github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/medusa-geth/ethdb"
	"github.com/crytic/medusa-geth/params"
	"github.com/crytic/medusa-geth/triedb"
	"github.com/crytic/medusa-geth/triedb/hashdb"
	"github.com/crytic/pathfinder/chain/config"
	"github.com/crytic/pathfinder/chain/types"
	"github.com/crytic/pathfinder/utils"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
)

// TestChain is an in-memory Ethereum chain which executes messages directly on the EVM, without consensus,
// signatures or a transaction pool. Every message sent to it is mined into its own block.
//
// A TestChain is not safe for concurrent mutation. Forks obtained through Fork may be used concurrently with each
// other as long as the chain itself is not mutated.
type TestChain struct {
	// blocks holds every committed block, starting with genesis.
	blocks []*types.Block

	// pendingBlock is a block currently under construction which has not yet been committed.
	pendingBlock *types.Block

	// testChainConfig represents the configuration used by this TestChain.
	testChainConfig *config.TestChainConfig

	// chainConfig is the go-ethereum fork configuration.
	chainConfig *params.ChainConfig

	// vmConfigExtensions defines EVM extensions to use with each chain call or transaction.
	vmConfigExtensions *vm.ConfigExtensions

	// genesisDefinition represents the Genesis information used to generate the chain's initial state.
	genesisDefinition *core.Genesis

	// state is the world state at the head of the chain, including changes of the pending block.
	state *gethState.StateDB

	// stateDatabase refers to the database object which state uses to store data. It is constructed over db.
	stateDatabase gethState.Database

	// db represents the in-memory key-value store backing the chain.
	db ethdb.Database

	// callTracerRouter routes tracing hooks for calls which do not commit state.
	callTracerRouter *TestChainTracerRouter

	// transactionTracerRouter routes tracing hooks for messages mined into blocks.
	transactionTracerRouter *TestChainTracerRouter

	// Events defines the event system for the TestChain.
	Events TestChainEvents
}

// NewTestChain creates a TestChain whose genesis state holds genesisAlloc. If testChainConfig is nil, a default
// configuration is used.
func NewTestChain(genesisAlloc gethTypes.GenesisAlloc, testChainConfig *config.TestChainConfig) (*TestChain, error) {
	if testChainConfig == nil {
		testChainConfig = config.DefaultTestChainConfig()
	}
	if err := testChainConfig.Validate(); err != nil {
		return nil, err
	}

	// Copy the chain config so it is not shared across chains.
	chainConfig, err := utils.CopyChainConfig(params.TestChainConfig)
	if err != nil {
		return nil, err
	}

	// go-ethereum's test config does not schedule the latest forks, so activate them from genesis.
	forkTime := uint64(0)
	chainConfig.ShanghaiTime = &forkTime
	chainConfig.CancunTime = &forkTime
	chainConfig.PragueTime = &forkTime
	chainConfig.BlobScheduleConfig = params.DefaultBlobSchedule

	genesisDefinition := &core.Genesis{
		Config:     chainConfig,
		Nonce:      0,
		Timestamp:  0,
		ExtraData:  []byte("pathfinder"),
		GasLimit:   testChainConfig.BlockGasLimit,
		Difficulty: common.Big0,
		Mixhash:    common.Hash{},
		Coinbase:   common.Address{},
		Alloc:      maps.Clone(genesisAlloc),
		Number:     0,
		GasUsed:    0,
		ParentHash: common.Hash{},
		BaseFee:    big.NewInt(0),
	}
	if genesisDefinition.Alloc == nil {
		genesisDefinition.Alloc = make(gethTypes.GenesisAlloc)
	}

	db := rawdb.NewMemoryDatabase()
	trieDB := triedb.NewDatabase(db, &triedb.Config{HashDB: hashdb.Defaults})
	genesisBlock := genesisDefinition.MustCommit(db, trieDB)
	stateDatabase := gethState.NewDatabase(trieDB, nil)

	chain := &TestChain{
		blocks:                  []*types.Block{types.NewBlock(genesisBlock.Header())},
		testChainConfig:         testChainConfig,
		chainConfig:             chainConfig,
		vmConfigExtensions:      testChainConfig.GetVMConfigExtensions(),
		genesisDefinition:       genesisDefinition,
		stateDatabase:           stateDatabase,
		db:                      db,
		callTracerRouter:        NewTestChainTracerRouter(),
		transactionTracerRouter: NewTestChainTracerRouter(),
	}
	chain.AddTracer(newTestChainDeploymentsTracer().NativeTracer(), true, false)

	chain.state, err = gethState.New(genesisBlock.Root(), stateDatabase)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// Close releases the trie database caches held by the chain. The chain and its forks must not be used afterward.
func (t *TestChain) Close() {
	_ = t.stateDatabase.TrieDB().Close()
}

// AddTracer adds a tracer to the chain, for messages mined into blocks (txs), for non-committing calls (calls), or
// both.
func (t *TestChain) AddTracer(tracer *TestChainTracer, txs bool, calls bool) {
	if txs {
		t.transactionTracerRouter.AddTracers(tracer)
	}
	if calls {
		t.callTracerRouter.AddTracers(tracer)
	}
}

// Config returns the chain's configuration.
func (t *TestChain) Config() *config.TestChainConfig {
	return t.testChainConfig
}

// ChainConfig returns the go-ethereum fork configuration of the chain.
func (t *TestChain) ChainConfig() *params.ChainConfig {
	return t.chainConfig
}

// GenesisDefinition returns the definition the chain's genesis block was created from.
func (t *TestChain) GenesisDefinition() *core.Genesis {
	return t.genesisDefinition
}

// CommittedBlocks returns the blocks committed to the chain, starting with genesis.
func (t *TestChain) CommittedBlocks() []*types.Block {
	return t.blocks
}

// Head returns the most recently committed block.
func (t *TestChain) Head() *types.Block {
	return t.blocks[len(t.blocks)-1]
}

// HeadBlockNumber returns the block number of the most recently committed block.
func (t *TestChain) HeadBlockNumber() uint64 {
	return t.Head().Header.Number.Uint64()
}

// BlockHashFromNumber returns the hash of the committed block with the given number.
func (t *TestChain) BlockHashFromNumber(blockNumber uint64) (common.Hash, error) {
	if blockNumber >= uint64(len(t.blocks)) {
		return common.Hash{}, fmt.Errorf("could not obtain block hash for block number %d, it has not been committed", blockNumber)
	}
	return t.blocks[blockNumber].Hash, nil
}

// getHash resolves block hashes for the BLOCKHASH opcode. Unknown blocks resolve to the zero hash.
func (t *TestChain) getHash(n uint64) common.Hash {
	hash, _ := t.BlockHashFromNumber(n)
	return hash
}

// GetBalance returns the balance of an account at the chain head.
func (t *TestChain) GetBalance(addr common.Address) *big.Int {
	return t.state.GetBalance(addr).ToBig()
}

// GetNonce returns the nonce of an account at the chain head.
func (t *TestChain) GetNonce(addr common.Address) uint64 {
	return t.state.GetNonce(addr)
}

// GetCode returns the code of an account at the chain head.
func (t *TestChain) GetCode(addr common.Address) []byte {
	return t.state.GetCode(addr)
}

// NewMessage returns a message from sender to the given address (nil for a contract creation) using the sender's
// current nonce and the configured transaction gas limit. Gas is free on the chain, so only value transfers move
// balances.
func (t *TestChain) NewMessage(from common.Address, to *common.Address, value *big.Int, data []byte) *core.Message {
	return newMessage(from, to, t.state.GetNonce(from), value, t.testChainConfig.TransactionGasLimit, data)
}

func newMessage(from common.Address, to *common.Address, nonce uint64, value *big.Int, gasLimit uint64, data []byte) *core.Message {
	if value == nil {
		value = big.NewInt(0)
	}
	return &core.Message{
		From:      from,
		To:        to,
		Nonce:     nonce,
		Value:     new(big.Int).Set(value),
		GasLimit:  gasLimit,
		GasPrice:  big.NewInt(0),
		GasFeeCap: big.NewInt(0),
		GasTipCap: big.NewInt(0),
		Data:      data,
	}
}

// FundAccount sets the balance of an account and commits the change in a new block.
func (t *TestChain) FundAccount(addr common.Address, balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("could not fund account %s: balance must be a non-negative integer", addr.Hex())
	}
	b, overflow := uint256.FromBig(balance)
	if overflow {
		return fmt.Errorf("could not fund account %s: balance exceeds 256 bits", addr.Hex())
	}

	if _, err := t.PendingBlockCreate(); err != nil {
		return err
	}
	t.state.SetBalance(addr, b, tracing.BalanceChangeUnspecified)
	return t.PendingBlockCommit()
}

// SendMessage mines msg into a new block and returns its results. A message which reverts is still mined; only
// messages which cannot be applied at all (e.g. a wrong nonce or insufficient funds) return an error.
func (t *TestChain) SendMessage(msg *core.Message, additionalTracers ...*TestChainTracer) (*types.MessageResults, error) {
	if _, err := t.PendingBlockCreate(); err != nil {
		return nil, err
	}
	if err := t.PendingBlockAddTx(msg, additionalTracers...); err != nil {
		t.PendingBlockDiscard()
		return nil, err
	}
	block := t.pendingBlock
	if err := t.PendingBlockCommit(); err != nil {
		return nil, err
	}
	return block.MessageResults[len(block.MessageResults)-1], nil
}

// DeployContract mines a contract creation message from sender with the provided init bytecode (including any
// encoded constructor arguments). Returns the address of the deployed contract and the message results. A failed
// deployment is still mined, and returns an error along with its results.
func (t *TestChain) DeployContract(from common.Address, initBytecode []byte, value *big.Int, additionalTracers ...*TestChainTracer) (common.Address, *types.MessageResults, error) {
	results, err := t.SendMessage(t.NewMessage(from, nil, value, initBytecode), additionalTracers...)
	if err != nil {
		return common.Address{}, nil, err
	}
	addr := results.CreatedAddress()
	if addr == nil {
		return common.Address{}, results, fmt.Errorf("contract deployment failed: %v", results.ExecutionResult.Err)
	}
	return *addr, results, nil
}

// CallContract executes msg over the current chain state without committing any changes, like an eth_call. The
// sender is given an effectively unlimited balance for the duration of the call.
func (t *TestChain) CallContract(msg *core.Message, additionalTracers ...*TestChainTracer) (*core.ExecutionResult, error) {
	header := t.Head().Header
	if t.pendingBlock != nil {
		header = t.pendingBlock.Header
	}

	router := NewTestChainTracerRouter()
	router.AddTracers(t.callTracerRouter.NativeTracer())
	router.AddTracers(additionalTracers...)
	return callContract(t.state, t.chainConfig, t.vmConfigExtensions, newTestChainBlockContext(t.getHash, header), msg, router)
}

// callContract executes msg over state and reverts every change it made.
func callContract(state *gethState.StateDB, chainConfig *params.ChainConfig, vmConfigExtensions *vm.ConfigExtensions, blockContext vm.BlockContext, msg *core.Message, router *TestChainTracerRouter) (*core.ExecutionResult, error) {
	snapshot := state.Snapshot()
	defer state.RevertToSnapshot(snapshot)

	state.SetBalance(msg.From, uint256.MustFromBig(gethMath.MaxBig256), tracing.BalanceChangeUnspecified)
	hooks := router.NativeTracer().Hooks
	evm := vm.NewEVM(blockContext, state, chainConfig, vm.Config{
		Tracer:           hooks,
		NoBaseFee:        true,
		ConfigExtensions: vmConfigExtensions,
	})

	tx := utils.MessageToTransaction(msg)
	hooks.OnTxStart(evm.GetVMContext(), tx, msg.From)

	// The gas pool only bounds this single call.
	gasPool := new(core.GasPool).AddGas(math.MaxUint64)
	result, err := core.ApplyMessage(evm, msg, gasPool)

	receipt := &gethTypes.Receipt{Type: tx.Type(), TxHash: tx.Hash()}
	if result != nil {
		receipt.GasUsed = result.UsedGas
		receipt.Status = gethTypes.ReceiptStatusSuccessful
		if result.Failed() {
			receipt.Status = gethTypes.ReceiptStatusFailed
		}
	}
	hooks.OnTxEnd(receipt, err)
	return result, err
}

// PendingBlock describes the current pending block which is being constructed and awaiting commitment to the chain.
// This may be nil if no pending block was created.
func (t *TestChain) PendingBlock() *types.Block {
	return t.pendingBlock
}

// PendingBlockCreate starts a new empty block following the chain head.
func (t *TestChain) PendingBlockCreate() (*types.Block, error) {
	if t.pendingBlock != nil {
		return nil, errors.New("could not create a new pending block for chain, as a block is already pending")
	}

	head := t.Head()
	header := newChildHeader(head.Header, head.Hash, t.testChainConfig.BlockGasLimit, t.testChainConfig.BlockTimestampIncrement)
	if head.Header.Number.Sign() == 0 {
		header.Time = t.testChainConfig.InitialTimestamp
	}
	t.pendingBlock = types.NewBlock(header)
	return t.pendingBlock, nil
}

// PendingBlockAddTx executes a message in the pending block. If the message cannot be applied (e.g. due to an
// invalid nonce or exceeding the block gas limit), an error is returned and the pending block is left unchanged.
func (t *TestChain) PendingBlockAddTx(message *core.Message, additionalTracers ...*TestChainTracer) error {
	if t.pendingBlock == nil {
		return errors.New("could not add tx to the chain's pending block because no pending block was created")
	}

	router := t.transactionTracerRouter
	if len(additionalTracers) > 0 {
		router = NewTestChainTracerRouter()
		router.AddTracers(t.transactionTracerRouter.NativeTracer())
		router.AddTracers(additionalTracers...)
	}

	header := t.pendingBlock.Header
	gasPool := new(core.GasPool).AddGas(header.GasLimit - header.GasUsed)
	blockContext := newTestChainBlockContext(t.getHash, header)
	results, err := applyMessage(t.state, t.chainConfig, t.vmConfigExtensions, blockContext, t.pendingBlock.Hash, len(t.pendingBlock.Messages), header.GasUsed, gasPool, message, router)
	if err != nil {
		return fmt.Errorf("test chain state write error when adding tx to pending block: %v", err)
	}

	header.GasUsed += results.Receipt.GasUsed
	header.Bloom.Add(results.Receipt.Bloom.Bytes())
	t.pendingBlock.Messages = append(t.pendingBlock.Messages, message)
	t.pendingBlock.MessageResults = append(t.pendingBlock.MessageResults, results)
	return nil
}

// applyMessage executes message over state as the txIndex-th message of a block, finalising its changes without
// committing them.
func applyMessage(
	state *gethState.StateDB,
	chainConfig *params.ChainConfig,
	vmConfigExtensions *vm.ConfigExtensions,
	blockContext vm.BlockContext,
	blockHash common.Hash,
	txIndex int,
	cumulativeGasUsed uint64,
	gasPool *core.GasPool,
	message *core.Message,
	router *TestChainTracerRouter,
) (*types.MessageResults, error) {
	tx := utils.MessageToTransaction(message)
	state.SetTxContext(tx.Hash(), txIndex)

	hooks := router.NativeTracer().Hooks
	evm := vm.NewEVM(blockContext, state, chainConfig, vm.Config{
		Tracer:           hooks,
		NoBaseFee:        true,
		ConfigExtensions: vmConfigExtensions,
	})

	// A message which cannot be applied must leave no trace in the state.
	snapshot := state.Snapshot()
	hooks.OnTxStart(evm.GetVMContext(), tx, message.From)
	result, err := core.ApplyMessage(evm, message, gasPool)
	if err != nil {
		hooks.OnTxEnd(nil, err)
		state.RevertToSnapshot(snapshot)
		return nil, err
	}
	state.Finalise(true)

	receipt := &gethTypes.Receipt{
		Type:              tx.Type(),
		CumulativeGasUsed: cumulativeGasUsed + result.UsedGas,
		TxHash:            tx.Hash(),
		GasUsed:           result.UsedGas,
		BlockHash:         blockHash,
		BlockNumber:       new(big.Int).Set(blockContext.BlockNumber),
		TransactionIndex:  uint(txIndex),
		Status:            gethTypes.ReceiptStatusSuccessful,
	}
	if result.Failed() {
		receipt.Status = gethTypes.ReceiptStatusFailed
	}
	if message.To == nil {
		receipt.ContractAddress = crypto.CreateAddress(message.From, message.Nonce)
	}
	receipt.Logs = state.GetLogs(tx.Hash(), blockContext.BlockNumber.Uint64(), blockHash)
	receipt.Bloom = gethTypes.CreateBloom(receipt)
	hooks.OnTxEnd(receipt, nil)

	results := &types.MessageResults{
		ExecutionResult:   result,
		Receipt:           receipt,
		AdditionalResults: make(map[string]any),
	}
	router.CaptureTxEndSetAdditionalResults(results)
	return results, nil
}

// PendingBlockCommit commits the pending block's state changes and makes it the new chain head.
func (t *TestChain) PendingBlockCommit() error {
	if t.pendingBlock == nil {
		return errors.New("could not commit chain's pending block, as no pending block was created")
	}

	block := t.pendingBlock
	root, err := t.state.Commit(block.Header.Number.Uint64(), true, true)
	if err != nil {
		return err
	}
	block.Header.Root = root

	// Committing invalidates the state's cached tries, so it is reopened at the new root.
	t.state, err = gethState.New(root, t.stateDatabase)
	if err != nil {
		return err
	}

	block.Hash = block.Header.Hash()
	t.blocks = append(t.blocks, block)
	t.pendingBlock = nil

	if err = t.Events.BlockCommitted.Publish(BlockCommittedEvent{Chain: t, Block: block}); err != nil {
		return err
	}
	for _, results := range block.MessageResults {
		for i := range results.ContractDeploymentChanges {
			err = t.Events.ContractDeploymentAdded.Publish(ContractDeploymentAddedEvent{
				Chain:    t,
				Contract: &results.ContractDeploymentChanges[i],
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// PendingBlockDiscard drops the pending block and any state changes made in it.
func (t *TestChain) PendingBlockDiscard() {
	if t.pendingBlock == nil {
		return
	}
	t.pendingBlock = nil

	// Reopening the state at the head root discards anything not yet committed.
	state, err := gethState.New(t.Head().Header.Root, t.stateDatabase)
	if err == nil {
		t.state = state
	}
}
