package types

import (
	"github.com/crytic/medusa-geth/common"
)

// DeployedContractBytecode describes the init and runtime bytecode recorded for a given contract address.
type DeployedContractBytecode struct {
	// Address is where the contract was deployed.
	Address common.Address

	// InitBytecode describes the bytecode used to deploy the contract.
	InitBytecode []byte

	// RuntimeBytecode describes the bytecode which was deployed by the InitBytecode.
	RuntimeBytecode []byte

	// Dynamic indicates the contract was created by another contract rather than by a top-level creation message.
	Dynamic bool
}
