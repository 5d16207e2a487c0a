package chain

import (
	"math/big"
	"sync"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/crytic/medusa-geth/core/tracing"
	gethTypes "github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/pathfinder/chain/config"
	"github.com/crytic/pathfinder/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boundedCheckInitCode deploys a contract which reverts when its first calldata word exceeds 100 and stops
// otherwise.
var boundedCheckInitCode = hexutil.MustDecode("0x6011600c60003960116000f3" + "606460043511600c570000005b600080fd")

// factoryInitCode deploys a contract which, when called, creates a bounded check contract and returns its address.
var factoryInitCode = hexutil.MustDecode("0x6033600c60003960336000f3" + "601d6016600039601d60006000f060005260206000f3" +
	"6011600c60003960116000f3" + "606460043511600c570000005b600080fd")

// checkCalldata returns calldata whose first argument word (after a four byte selector) is x.
func checkCalldata(x int64) []byte {
	data := make([]byte, 4, 36)
	return append(data, common.BigToHash(big.NewInt(x)).Bytes()...)
}

// verifyChain verifies block linkage and timestamps of a TestChain.
func verifyChain(t *testing.T, chain *TestChain) {
	blocks := chain.CommittedBlocks()
	require.NotEmpty(t, blocks)
	assert.Same(t, blocks[len(blocks)-1], chain.Head())

	for i, block := range blocks {
		assert.EqualValues(t, i, block.Header.Number.Uint64())
		assert.Len(t, block.MessageResults, len(block.Messages))

		hash, err := chain.BlockHashFromNumber(uint64(i))
		require.NoError(t, err)
		assert.EqualValues(t, block.Hash, hash)

		if i > 0 {
			assert.EqualValues(t, blocks[i-1].Hash, block.Header.ParentHash)
			assert.Less(t, blocks[i-1].Header.Time, block.Header.Time)
		}
	}
}

// createChain creates a TestChain whose genesis funds a few sender accounts.
func createChain(t *testing.T) (*TestChain, []common.Address) {
	senders := []common.Address{utils.SequentialAddress(0), utils.SequentialAddress(1), utils.SequentialAddress(2)}

	genesisAlloc := make(gethTypes.GenesisAlloc)
	for _, sender := range senders {
		genesisAlloc[sender] = gethTypes.Account{Balance: big.NewInt(1_000_000)}
	}

	chain, err := NewTestChain(genesisAlloc, nil)
	require.NoError(t, err)
	t.Cleanup(chain.Close)
	return chain, senders
}

// TestChainGenesis ensures a new chain holds only its genesis block with the configured allocation.
func TestChainGenesis(t *testing.T) {
	chain, senders := createChain(t)

	assert.EqualValues(t, 0, chain.HeadBlockNumber())
	for _, sender := range senders {
		assert.EqualValues(t, big.NewInt(1_000_000), chain.GetBalance(sender))
		assert.EqualValues(t, 0, chain.GetNonce(sender))
	}
	verifyChain(t, chain)
}

// TestChainFundAccount ensures funding an account commits a block and sets the exact balance.
func TestChainFundAccount(t *testing.T) {
	chain, _ := createChain(t)
	account := utils.SequentialAddress(9)
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)

	require.NoError(t, chain.FundAccount(account, amount))
	assert.EqualValues(t, amount, chain.GetBalance(account))
	assert.EqualValues(t, 1, chain.HeadBlockNumber())

	assert.Error(t, chain.FundAccount(account, big.NewInt(-1)))
	assert.Error(t, chain.FundAccount(account, new(big.Int).Lsh(big.NewInt(1), 256)))
	assert.EqualValues(t, 1, chain.HeadBlockNumber())
	verifyChain(t, chain)
}

// TestChainValueTransfer ensures a plain value transfer is mined and moves balances without gas costs.
func TestChainValueTransfer(t *testing.T) {
	chain, senders := createChain(t)

	results, err := chain.SendMessage(chain.NewMessage(senders[0], &senders[1], big.NewInt(250), nil))
	require.NoError(t, err)
	assert.False(t, results.Failed())
	assert.EqualValues(t, big.NewInt(999_750), chain.GetBalance(senders[0]))
	assert.EqualValues(t, big.NewInt(1_000_250), chain.GetBalance(senders[1]))
	assert.EqualValues(t, 1, chain.GetNonce(senders[0]))

	// Overdrawn transfers cannot be applied and leave the chain untouched.
	_, err = chain.SendMessage(chain.NewMessage(senders[2], &senders[1], big.NewInt(2_000_000), nil))
	assert.Error(t, err)
	assert.EqualValues(t, 1, chain.HeadBlockNumber())
	assert.Nil(t, chain.PendingBlock())
	verifyChain(t, chain)
}

// TestChainDeployAndCall deploys a contract and ensures calls and mined messages observe its behavior.
func TestChainDeployAndCall(t *testing.T) {
	chain, senders := createChain(t)

	var deployed []common.Address
	chain.Events.ContractDeploymentAdded.Subscribe(func(event ContractDeploymentAddedEvent) error {
		deployed = append(deployed, event.Contract.Address)
		return nil
	})

	addr, results, err := chain.DeployContract(senders[0], boundedCheckInitCode, nil)
	require.NoError(t, err)
	assert.EqualValues(t, []common.Address{addr}, deployed)
	require.Len(t, results.ContractDeploymentChanges, 1)
	assert.False(t, results.ContractDeploymentChanges[0].Dynamic)
	assert.EqualValues(t, boundedCheckInitCode[12:], chain.GetCode(addr))

	result, err := chain.CallContract(chain.NewMessage(senders[1], &addr, nil, checkCalldata(5)))
	require.NoError(t, err)
	assert.False(t, result.Failed())

	result, err = chain.CallContract(chain.NewMessage(senders[1], &addr, nil, checkCalldata(101)))
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, vm.ErrExecutionReverted)

	// Calls do not mine blocks or consume nonces.
	assert.EqualValues(t, 1, chain.HeadBlockNumber())
	assert.EqualValues(t, 0, chain.GetNonce(senders[1]))

	// Reverting messages are still mined.
	mined, err := chain.SendMessage(chain.NewMessage(senders[1], &addr, nil, checkCalldata(500)))
	require.NoError(t, err)
	assert.True(t, mined.Failed())
	assert.EqualValues(t, gethTypes.ReceiptStatusFailed, mined.Receipt.Status)
	assert.EqualValues(t, 2, chain.HeadBlockNumber())
	assert.EqualValues(t, 1, chain.GetNonce(senders[1]))
	verifyChain(t, chain)
}

// TestChainAdditionalTracer ensures additional tracers observe the opcodes of the message they were passed with.
func TestChainAdditionalTracer(t *testing.T) {
	chain, senders := createChain(t)
	addr, _, err := chain.DeployContract(senders[0], boundedCheckInitCode, nil)
	require.NoError(t, err)

	var jumpis int
	tracer := &TestChainTracer{Hooks: &tracing.Hooks{
		OnOpcode: func(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
			if vm.OpCode(op) == vm.JUMPI {
				jumpis++
			}
		},
	}}
	_, err = chain.SendMessage(chain.NewMessage(senders[0], &addr, nil, checkCalldata(1)), tracer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, jumpis)

	// The tracer is not retained for later messages.
	_, err = chain.SendMessage(chain.NewMessage(senders[0], &addr, nil, checkCalldata(1)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, jumpis)
}

// TestChainForkIsolation ensures forks neither affect the chain nor each other, even when used concurrently.
func TestChainForkIsolation(t *testing.T) {
	chain, senders := createChain(t)
	addr, _, err := chain.DeployContract(senders[0], boundedCheckInitCode, nil)
	require.NoError(t, err)
	head := chain.HeadBlockNumber()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			fork, err := chain.Fork()
			if !assert.NoError(t, err) {
				return
			}
			_, err = fork.ApplyMessage(fork.NewMessage(senders[1], &senders[2], big.NewInt(amount), nil))
			assert.NoError(t, err)
			results, err := fork.ApplyMessage(fork.NewMessage(senders[1], &addr, nil, checkCalldata(amount*100)))
			assert.NoError(t, err)
			assert.Equal(t, amount*100 > 100, results.Failed())

			assert.EqualValues(t, big.NewInt(1_000_000-amount), fork.GetBalance(senders[1]))
			assert.EqualValues(t, 2, fork.GetNonce(senders[1]))
			assert.EqualValues(t, head+2, fork.HeadBlockNumber())
		}(int64(i + 1))
	}
	wg.Wait()

	assert.EqualValues(t, head, chain.HeadBlockNumber())
	assert.EqualValues(t, big.NewInt(1_000_000), chain.GetBalance(senders[1]))
	assert.EqualValues(t, 0, chain.GetNonce(senders[1]))
	verifyChain(t, chain)
}

// TestChainForkDeployments ensures forks can execute top-level and nested contract creations.
func TestChainForkDeployments(t *testing.T) {
	chain, senders := createChain(t)
	factory, _, err := chain.DeployContract(senders[0], factoryInitCode, nil)
	require.NoError(t, err)

	fork, err := chain.Fork()
	require.NoError(t, err)

	// A top-level creation in the fork.
	results, err := fork.ApplyMessage(fork.NewMessage(senders[1], nil, nil, boundedCheckInitCode))
	require.NoError(t, err)
	require.False(t, results.Failed())
	created := results.CreatedAddress()
	require.NotNil(t, created)
	assert.EqualValues(t, boundedCheckInitCode[12:], fork.GetCode(*created))

	// A creation made by a contract during a call.
	results, err = fork.ApplyMessage(fork.NewMessage(senders[1], &factory, nil, nil))
	require.NoError(t, err)
	require.False(t, results.Failed())
	child := common.BytesToAddress(results.ExecutionResult.ReturnData)
	assert.EqualValues(t, boundedCheckInitCode[12:], fork.GetCode(child))
	require.Len(t, results.ContractDeploymentChanges, 1)
	assert.True(t, results.ContractDeploymentChanges[0].Dynamic)
	assert.EqualValues(t, child, results.ContractDeploymentChanges[0].Address)

	// Neither creation reached the chain.
	assert.Empty(t, chain.GetCode(*created))
	assert.Empty(t, chain.GetCode(child))

	// Nested creations also work over the chain itself.
	result, err := chain.CallContract(chain.NewMessage(senders[1], &factory, nil, nil))
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.NotEmpty(t, result.ReturnData)
}

// TestChainInvalidConfig ensures invalid chain configurations are rejected.
func TestChainInvalidConfig(t *testing.T) {
	cfg := *config.DefaultTestChainConfig()
	cfg.TransactionGasLimit = cfg.BlockGasLimit + 1
	_, err := NewTestChain(nil, &cfg)
	assert.Error(t, err)
}
