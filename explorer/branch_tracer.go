package explorer

import (
	"encoding/binary"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/tracing"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/pathfinder/chain"
)

// branchDecision is the outcome of a single JUMPI.
type branchDecision struct {
	// Address is the address of the contract whose code executed the JUMPI.
	Address common.Address

	// PC is the program counter of the JUMPI.
	PC uint64

	// Taken is true if the jump was taken.
	Taken bool
}

// appendTo appends the binary encoding of the decision to b.
func (d branchDecision) appendTo(b []byte) []byte {
	b = append(b, d.Address.Bytes()...)
	b = binary.BigEndian.AppendUint64(b, d.PC)
	if d.Taken {
		return append(b, 1)
	}
	return append(b, 0)
}

// branchTracer records the branch decisions of a message and the program counters it visits.
type branchTracer struct {
	// decisions holds the branch decisions of the current message, in execution order.
	decisions []branchDecision

	// visited maps code addresses to the program counters executed there, across every traced message.
	visited map[common.Address]map[uint64]struct{}

	nativeTracer *chain.TestChainTracer
}

func newBranchTracer() *branchTracer {
	tracer := &branchTracer{
		visited: make(map[common.Address]map[uint64]struct{}),
	}
	tracer.nativeTracer = &chain.TestChainTracer{
		Hooks: &tracing.Hooks{
			OnOpcode: tracer.OnOpcode,
		},
	}
	return tracer
}

// NativeTracer returns the tracer as a chain.TestChainTracer.
func (t *branchTracer) NativeTracer() *chain.TestChainTracer {
	return t.nativeTracer
}

// takeDecisions returns the decisions recorded since the last call.
func (t *branchTracer) takeDecisions() []branchDecision {
	decisions := t.decisions
	t.decisions = nil
	return decisions
}

// OnOpcode is called before each opcode is executed.
func (t *branchTracer) OnOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	addr := scope.Address()
	pcs, ok := t.visited[addr]
	if !ok {
		pcs = make(map[uint64]struct{})
		t.visited[addr] = pcs
	}
	pcs[pc] = struct{}{}

	if vm.OpCode(op) != vm.JUMPI {
		return
	}

	// JUMPI pops the destination, then the condition.
	stack := scope.StackData()
	if len(stack) < 2 {
		return
	}
	t.decisions = append(t.decisions, branchDecision{
		Address: addr,
		PC:      pc,
		Taken:   !stack[len(stack)-2].IsZero(),
	})
}
