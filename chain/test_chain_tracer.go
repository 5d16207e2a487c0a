package chain

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/tracing"
	coretypes "github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/pathfinder/chain/types"
	"golang.org/x/exp/slices"
)

// TestChainTracer is a set of EVM tracing hooks which can additionally store results into the MessageResults of the
// message it traced.
type TestChainTracer struct {
	// Hooks are the EVM tracing hooks. Nil hooks are skipped.
	Hooks *tracing.Hooks

	// CaptureTxEndSetAdditionalResults, if non-nil, is called once a message finished executing so the tracer can
	// record its findings into the results.
	CaptureTxEndSetAdditionalResults func(results *types.MessageResults)
}

// TestChainTracerRouter forwards every hook it receives to each of its registered tracers, in registration order.
type TestChainTracerRouter struct {
	tracers      []*TestChainTracer
	nativeTracer *TestChainTracer
}

// NewTestChainTracerRouter returns a new TestChainTracerRouter instance with no registered tracers.
func NewTestChainTracerRouter() *TestChainTracerRouter {
	router := &TestChainTracerRouter{
		tracers: make([]*TestChainTracer, 0),
	}
	router.nativeTracer = &TestChainTracer{
		Hooks: &tracing.Hooks{
			OnTxStart: router.OnTxStart,
			OnTxEnd:   router.OnTxEnd,
			OnEnter:   router.OnEnter,
			OnExit:    router.OnExit,
			OnOpcode:  router.OnOpcode,
		},
		CaptureTxEndSetAdditionalResults: router.CaptureTxEndSetAdditionalResults,
	}
	return router
}

// NativeTracer returns a TestChainTracer which routes to every registered tracer.
func (t *TestChainTracerRouter) NativeTracer() *TestChainTracer {
	return t.nativeTracer
}

// AddTracers registers tracers with the router. Nil tracers are ignored.
func (t *TestChainTracerRouter) AddTracers(tracers ...*TestChainTracer) {
	for _, tracer := range tracers {
		if tracer != nil && tracer.Hooks != nil {
			t.tracers = append(t.tracers, tracer)
		}
	}
}

// Tracers returns the tracers added to the router.
func (t *TestChainTracerRouter) Tracers() []*TestChainTracer {
	return slices.Clone(t.tracers)
}

// OnTxStart is called upon the start of transaction execution.
func (t *TestChainTracerRouter) OnTxStart(vm *tracing.VMContext, tx *coretypes.Transaction, from common.Address) {
	for _, tracer := range t.tracers {
		if tracer.Hooks.OnTxStart != nil {
			tracer.Hooks.OnTxStart(vm, tx, from)
		}
	}
}

// OnTxEnd is called upon the end of transaction execution.
func (t *TestChainTracerRouter) OnTxEnd(receipt *coretypes.Receipt, err error) {
	for _, tracer := range t.tracers {
		if tracer.Hooks.OnTxEnd != nil {
			tracer.Hooks.OnTxEnd(receipt, err)
		}
	}
}

// OnEnter is called when a call frame is entered.
func (t *TestChainTracerRouter) OnEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	for _, tracer := range t.tracers {
		if tracer.Hooks.OnEnter != nil {
			tracer.Hooks.OnEnter(depth, typ, from, to, input, gas, value)
		}
	}
}

// OnExit is called when a call frame is exited.
func (t *TestChainTracerRouter) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	for _, tracer := range t.tracers {
		if tracer.Hooks.OnExit != nil {
			tracer.Hooks.OnExit(depth, output, gasUsed, err, reverted)
		}
	}
}

// OnOpcode is called before each opcode is executed.
func (t *TestChainTracerRouter) OnOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	for _, tracer := range t.tracers {
		if tracer.Hooks.OnOpcode != nil {
			tracer.Hooks.OnOpcode(pc, op, gas, cost, scope, rData, depth, err)
		}
	}
}

// CaptureTxEndSetAdditionalResults lets every registered tracer record its results for the message just executed.
func (t *TestChainTracerRouter) CaptureTxEndSetAdditionalResults(results *types.MessageResults) {
	for _, tracer := range t.tracers {
		if tracer.CaptureTxEndSetAdditionalResults != nil {
			tracer.CaptureTxEndSetAdditionalResults(results)
		}
	}
}
