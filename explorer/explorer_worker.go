package explorer

import (
	"fmt"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/workspace"
)

// assignmentOutcome is the result of executing the plan for one assignment.
type assignmentOutcome struct {
	// index is the position of the assignment in exploration order.
	index int

	// assignment binds each explored symbolic value to its concrete value.
	assignment []NamedValue

	// calls are the executed calls of the plan.
	calls []*ExecutedCall

	// signature is the path signature of calls.
	signature common.Hash

	// visited maps code addresses to the program counters executed there.
	visited map[common.Address]map[uint64]struct{}

	// tokens holds the token state of each contract after the plan executed, keyed by contract name.
	tokens map[string]*workspace.TokenInfo
}

// explorerWorker executes assignments on forks of the explorer's chain. Each worker is used by a single goroutine.
type explorerWorker struct {
	// explorer is the Explorer which created the worker.
	explorer *Explorer

	// workerIndex is the index of the worker.
	workerIndex int

	// symbols are the explored symbolic values, in the order of assignment tuples.
	symbols []*SymbolicValue
}

// execute runs the plan on a fresh fork of the chain with tuple as the values of the worker's symbols. Calls which
// revert or cannot be applied are part of the path and do not stop the plan. Errors are only returned when the plan
// itself cannot be executed.
func (w *explorerWorker) execute(index int, tuple []any) (*assignmentOutcome, error) {
	e := w.explorer
	fork, err := e.chain.Fork()
	if err != nil {
		return nil, fmt.Errorf("worker %d could not fork the chain: %w", w.workerIndex, err)
	}

	assignment := make(map[*SymbolicValue]any, len(w.symbols))
	outcome := &assignmentOutcome{
		index:      index,
		assignment: make([]NamedValue, len(w.symbols)),
		calls:      make([]*ExecutedCall, 0, len(e.plan)),
	}
	for i, symbolic := range w.symbols {
		assignment[symbolic] = tuple[i]
		outcome.assignment[i] = NamedValue{Symbol: symbolic, Value: tuple[i]}
	}

	tracer := newBranchTracer()
	for _, call := range e.plan {
		data, args, err := call.concretize(assignment)
		if err != nil {
			return nil, err
		}
		to := call.Contract.Address()
		msg := fork.NewMessage(call.From, &to, call.Value, data)
		results, applyErr := fork.ApplyMessage(msg, tracer.NativeTracer())

		outcome.calls = append(outcome.calls, &ExecutedCall{
			Call:       call,
			Args:       args,
			Message:    msg,
			Results:    results,
			ApplyError: applyErr,
			Status:     statusOf(results, applyErr),
			branches:   tracer.takeDecisions(),
		})
	}

	outcome.signature = pathSignature(outcome.calls)
	outcome.visited = tracer.visited
	outcome.tokens = e.readTokens(fork)
	return outcome, nil
}
