package types

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	"github.com/crytic/medusa-geth/core/types"
)

// MessageResults describes the outcome of executing a message on a TestChain or one of its forks.
type MessageResults struct {
	// ExecutionResult describes the core.ExecutionResult returned after processing a given call.
	ExecutionResult *core.ExecutionResult

	// Receipt represents the transaction receipt. Its ContractAddress is set for contract creations.
	Receipt *types.Receipt

	// ContractDeploymentChanges lists the contracts created while executing the message, including nested
	// creations. Creations in reverted call frames are omitted.
	ContractDeploymentChanges []DeployedContractBytecode

	// AdditionalResults holds results of arbitrary types recorded by tracers, keyed by tracer.
	AdditionalResults map[string]any
}

// Failed indicates whether the message execution failed (reverted or hit an exceptional halt).
func (m *MessageResults) Failed() bool {
	return m.ExecutionResult == nil || m.ExecutionResult.Failed()
}

// CreatedAddress returns the address of the contract created by the message, or nil if the message was not a
// successful contract creation.
func (m *MessageResults) CreatedAddress() *common.Address {
	if m.Failed() || m.Receipt == nil || m.Receipt.ContractAddress == (common.Address{}) {
		return nil
	}
	addr := m.Receipt.ContractAddress
	return &addr
}
