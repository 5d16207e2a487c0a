package driver

import (
	"context"
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/explorer"
	"github.com/crytic/pathfinder/explorer/config"
)

// explorerEngine provides the driver capabilities over an explorer.Explorer.
type explorerEngine struct {
	explorer *explorer.Explorer
}

// NewExplorerEngine creates an Engine backed by a new explorer.Explorer.
func NewExplorerEngine(projectConfig config.ProjectConfig) (Engine, error) {
	e, err := explorer.NewExplorer(projectConfig)
	if err != nil {
		return nil, err
	}
	return &explorerEngine{explorer: e}, nil
}

// NewExplorerEngineFactory returns an EnvironmentFactory creating explorer backed engines from projectConfig.
func NewExplorerEngineFactory(projectConfig config.ProjectConfig) EnvironmentFactory {
	return EnvironmentFactoryFunc(func() (Engine, error) {
		return NewExplorerEngine(projectConfig)
	})
}

func (e *explorerEngine) CreateAccount(balance *big.Int) (common.Address, error) {
	return e.explorer.CreateAccount(balance)
}

func (e *explorerEngine) DeployContract(ctx context.Context, source string, owner common.Address, contractName string, args ...any) (Contract, error) {
	account, err := e.explorer.SolidityCreateContract(ctx, source, owner, contractName, args...)
	if err != nil {
		return nil, err
	}
	return &explorerContract{account: account}, nil
}

func (e *explorerEngine) MakeSymbolicValue(name string, typeName string) (SymbolicValue, error) {
	symbolic, err := e.explorer.MakeSymbolicValueOfType(name, typeName)
	if err != nil {
		return nil, err
	}
	return symbolic, nil
}

func (e *explorerEngine) Explore(ctx context.Context) (string, error) {
	result, err := e.explorer.Run(ctx)
	if err != nil {
		return "", err
	}
	return result.WorkspacePath, nil
}

func (e *explorerEngine) Close() {
	e.explorer.Close()
}

// explorerContract provides the Contract capability over an explorer.ContractAccount.
type explorerContract struct {
	account *explorer.ContractAccount
}

func (c *explorerContract) Address() common.Address {
	return c.account.Address()
}

func (c *explorerContract) Invoke(method string, value *big.Int, args ...any) error {
	_, err := c.account.CallWithOptions(explorer.CallOptions{Value: value}, method, args...)
	return err
}
