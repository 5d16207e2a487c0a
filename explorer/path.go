package explorer

import (
	"errors"
	"fmt"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/pathfinder/chain/types"
	"github.com/crytic/pathfinder/workspace"
	"golang.org/x/crypto/sha3"
)

// TxStatus describes the outcome of a transaction along a path.
type TxStatus string

const (
	// TxStatusSuccess indicates the transaction executed successfully.
	TxStatusSuccess TxStatus = "SUCCESS"
	// TxStatusRevert indicates the transaction reverted.
	TxStatusRevert TxStatus = "REVERT"
	// TxStatusError indicates the transaction failed for any reason other than a revert, such as an invalid opcode
	// or running out of gas.
	TxStatusError TxStatus = "ERROR"
	// TxStatusInvalid indicates the transaction could not be applied at all, e.g. because the sender could not
	// afford its value.
	TxStatusInvalid TxStatus = "INVALID"
)

// ExecutedCall is a call of the exploration plan as executed for one assignment.
type ExecutedCall struct {
	// Call is the planned call which was executed.
	Call *PlannedCall

	// Args are the concrete arguments the call was executed with.
	Args []any

	// Message is the message which was applied.
	Message *core.Message

	// Results are the results of the message, nil if it could not be applied.
	Results *types.MessageResults

	// ApplyError is the reason the message could not be applied, if it could not.
	ApplyError error

	// Status is the outcome of the call.
	Status TxStatus

	// branches are the branch decisions taken during the call.
	branches []branchDecision
}

// statusOf classifies the outcome of a message.
func statusOf(results *types.MessageResults, applyErr error) TxStatus {
	switch {
	case applyErr != nil || results == nil:
		return TxStatusInvalid
	case !results.Failed():
		return TxStatusSuccess
	case errors.Is(results.ExecutionResult.Err, vm.ErrExecutionReverted):
		return TxStatusRevert
	default:
		return TxStatusError
	}
}

// pathSignature returns the Keccak-256 hash of the statuses and branch decisions of calls, in order. Assignments
// with equal signatures followed the same path.
func pathSignature(calls []*ExecutedCall) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	buf := make([]byte, 0, 64)
	for _, call := range calls {
		buf = append(buf[:0], []byte(call.Status)...)
		buf = append(buf, 0)
		hasher.Write(buf)
		for _, decision := range call.branches {
			hasher.Write(decision.appendTo(buf[:0]))
		}
		// Separates the decisions of consecutive calls.
		hasher.Write([]byte{0xff})
	}
	var signature common.Hash
	hasher.Sum(signature[:0])
	return signature
}

// NamedValue is a symbolic value bound to a concrete value.
type NamedValue struct {
	Symbol *SymbolicValue
	Value  any
}

// Path is a distinct execution path found during exploration.
type Path struct {
	// ID identifies the path in the workspace, its artifacts are named test_<ID>.*.
	ID string

	// Signature is the path signature shared by every assignment which followed the path.
	Signature common.Hash

	// Index is the index of the representative assignment, the lowest index to follow the path.
	Index int

	// Assignment is the representative assignment.
	Assignment []NamedValue

	// Calls are the calls as executed for the representative assignment.
	Calls []*ExecutedCall

	// Assignments is the amount of explored assignments which followed this path.
	Assignments int

	// tokens holds the token state of each contract after the representative assignment, keyed by contract name.
	tokens map[string]*workspace.TokenInfo
}

// Statuses returns the status of each call along the path.
func (p *Path) Statuses() []TxStatus {
	statuses := make([]TxStatus, len(p.Calls))
	for i, call := range p.Calls {
		statuses[i] = call.Status
	}
	return statuses
}

// Branches returns the amount of branch decisions along the path.
func (p *Path) Branches() int {
	count := 0
	for _, call := range p.Calls {
		count += len(call.branches)
	}
	return count
}

// pathID derives a short identifier from a signature. The length grows only if a shorter id is taken.
func pathID(signature common.Hash, taken func(id string) bool) string {
	for n := 4; n < common.HashLength; n++ {
		id := fmt.Sprintf("%x", signature[:n])
		if !taken(id) {
			return id
		}
	}
	return signature.Hex()[2:]
}

// ExplorationResult describes the outcome of an exploration.
type ExplorationResult struct {
	// Paths are the distinct paths found, ordered by the index of their representative assignment.
	Paths []*Path

	// Assignments is the amount of assignments executed.
	Assignments int

	// TotalAssignments is the amount of assignments the candidate domains allow.
	TotalAssignments int

	// StopReason describes why the exploration stopped before executing every assignment. Empty if it did not.
	StopReason string

	// StartedAt is the time the exploration started.
	StartedAt time.Time

	// Duration is how long the exploration took.
	Duration time.Duration

	// WorkspacePath is the absolute path of the workspace the results were written to.
	WorkspacePath string
}

// Truncated reports whether fewer assignments were executed than the candidate domains allow.
func (r *ExplorationResult) Truncated() bool {
	return r.Assignments < r.TotalAssignments
}
