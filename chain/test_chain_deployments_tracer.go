package chain

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/tracing"
	coretypes "github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/pathfinder/chain/types"
)

// testChainDeploymentsTracer records the contracts created by a message, including creations made by other
// contracts. Creations in call frames which revert are discarded along with their frame.
type testChainDeploymentsTracer struct {
	// results are the creations of the current message which were not rolled back.
	results []types.DeployedContractBytecode

	// pendingCallFrames holds the creations of each call frame still executing, indexed by call depth.
	pendingCallFrames [][]types.DeployedContractBytecode

	// state is used to read the deployed runtime code once a creation frame exits.
	state tracing.StateDB
}

// newTestChainDeploymentsTracer returns a new testChainDeploymentsTracer.
func newTestChainDeploymentsTracer() *testChainDeploymentsTracer {
	return &testChainDeploymentsTracer{}
}

// NativeTracer returns the tracer as a TestChainTracer.
func (t *testChainDeploymentsTracer) NativeTracer() *TestChainTracer {
	return &TestChainTracer{
		Hooks: &tracing.Hooks{
			OnTxStart: t.OnTxStart,
			OnEnter:   t.OnEnter,
			OnExit:    t.OnExit,
		},
		CaptureTxEndSetAdditionalResults: t.CaptureTxEndSetAdditionalResults,
	}
}

// OnTxStart is called upon the start of transaction execution.
func (t *testChainDeploymentsTracer) OnTxStart(vm *tracing.VMContext, tx *coretypes.Transaction, from common.Address) {
	t.results = make([]types.DeployedContractBytecode, 0)
	t.pendingCallFrames = make([][]types.DeployedContractBytecode, 0)
	t.state = vm.StateDB
}

// OnEnter is called when a call frame is entered.
func (t *testChainDeploymentsTracer) OnEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	frame := make([]types.DeployedContractBytecode, 0)
	if op := vm.OpCode(typ); op == vm.CREATE || op == vm.CREATE2 {
		frame = append(frame, types.DeployedContractBytecode{
			Address:      to,
			InitBytecode: append([]byte{}, input...),
			Dynamic:      depth > 0,
		})
	}
	t.pendingCallFrames = append(t.pendingCallFrames, frame)
}

// OnExit is called when a call frame is exited.
func (t *testChainDeploymentsTracer) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if depth >= len(t.pendingCallFrames) {
		return
	}
	frame := t.pendingCallFrames[depth]
	t.pendingCallFrames = t.pendingCallFrames[:depth]
	if err != nil {
		return
	}

	for i := range frame {
		if frame[i].RuntimeBytecode == nil && t.state != nil {
			frame[i].RuntimeBytecode = t.state.GetCode(frame[i].Address)
		}
	}

	// A successful frame hands its creations to its parent, which may still revert them.
	if depth == 0 {
		t.results = append(t.results, frame...)
	} else {
		t.pendingCallFrames[depth-1] = append(t.pendingCallFrames[depth-1], frame...)
	}
}

// CaptureTxEndSetAdditionalResults stores the creations of the message into its results.
func (t *testChainDeploymentsTracer) CaptureTxEndSetAdditionalResults(results *types.MessageResults) {
	results.ContractDeploymentChanges = append(results.ContractDeploymentChanges, t.results...)
}
