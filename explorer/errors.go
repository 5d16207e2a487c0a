package explorer

import "errors"

var (
	// ErrDuplicateSymbolicValue is returned when a symbolic value is created with a name already in use.
	ErrDuplicateSymbolicValue = errors.New("a symbolic value with this name already exists")

	// ErrAlreadyExplored is returned when the explorer is used after its exploration ran.
	ErrAlreadyExplored = errors.New("exploration already ran, the explorer cannot be reused")

	// ErrUnknownMethod is returned when a call names a method the contract ABI does not define.
	ErrUnknownMethod = errors.New("unknown contract method")

	// ErrContractNotFound is returned when a compilation does not contain the requested contract.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDeploymentFailed is returned when a contract creation reverts or cannot be applied.
	ErrDeploymentFailed = errors.New("contract deployment failed")

	// ErrCallFailed is returned when a concrete call executed on the chain reverts or cannot be applied.
	ErrCallFailed = errors.New("contract call failed")
)
