package driver

import (
	"context"
	"math/big"

	"github.com/crytic/medusa-geth/common"
)

// EnvironmentFactory creates a fresh execution environment for each run.
type EnvironmentFactory interface {
	NewEngine() (Engine, error)
}

// EnvironmentFactoryFunc adapts a function to an EnvironmentFactory.
type EnvironmentFactoryFunc func() (Engine, error)

// NewEngine calls f.
func (f EnvironmentFactoryFunc) NewEngine() (Engine, error) {
	return f()
}

// AccountFactory creates funded accounts.
type AccountFactory interface {
	CreateAccount(balance *big.Int) (common.Address, error)
}

// ContractDeployer compiles Solidity source and deploys one of its contracts.
type ContractDeployer interface {
	DeployContract(ctx context.Context, source string, owner common.Address, contractName string, args ...any) (Contract, error)
}

// Contract is a deployed contract whose methods may be invoked with concrete or symbolic arguments.
type Contract interface {
	Address() common.Address
	Invoke(method string, value *big.Int, args ...any) error
}

// SymbolicValue is an input placeholder the engine explores candidate values for.
type SymbolicValue interface {
	Name() string
}

// SymbolicValueFactory creates uniquely named symbolic values of a Solidity type.
type SymbolicValueFactory interface {
	MakeSymbolicValue(name string, typeName string) (SymbolicValue, error)
}

// Explorer explores the recorded calls and returns the path of the workspace the results were saved in.
type Explorer interface {
	Explore(ctx context.Context) (string, error)
}

// Engine is a single execution environment offering every capability the driver uses.
type Engine interface {
	AccountFactory
	ContractDeployer
	SymbolicValueFactory
	Explorer

	// Close releases the resources of the environment.
	Close()
}
