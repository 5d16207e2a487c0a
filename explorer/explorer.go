package explorer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/chain"
	"github.com/crytic/pathfinder/compilation"
	"github.com/crytic/pathfinder/compilation/abiutils"
	compilationTypes "github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/explorer/config"
	"github.com/crytic/pathfinder/explorer/valuegeneration"
	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/utils"
	"github.com/crytic/pathfinder/workspace"
)

// Explorer is an execution environment over an in-memory chain. Accounts and contracts are created on the chain
// directly. Calls with symbolic arguments are recorded, and Run then executes them once per candidate assignment of
// their symbolic values, grouping assignments by the execution path they follow.
//
// An Explorer is not safe for concurrent use, except for Terminate.
type Explorer struct {
	// config describes the project configuration which the Explorer is targeting.
	config config.ProjectConfig

	// chain is the chain accounts and contracts are created on. Exploration runs on forks of it.
	chain *chain.TestChain

	// accounts are the accounts created through CreateAccount, in creation order.
	accounts []common.Address

	// contracts are the contracts deployed, in deployment order.
	contracts []*ContractAccount

	// symbolicValues are the symbolic values created, in creation order.
	symbolicValues []*SymbolicValue

	// symbolicValuesByName indexes symbolicValues by name.
	symbolicValuesByName map[string]*SymbolicValue

	// concreteCalls describes the calls executed on the chain before exploration, in order.
	concreteCalls []string

	// plan holds the calls recorded for exploration, in order.
	plan []*PlannedCall

	// valueSet collects values of significance to seed candidate domains with.
	valueSet *valuegeneration.ValueSet

	// compilerVersion is the version of the compiler used by SolidityCreateContract, if it was used.
	compilerVersion string

	// workspace is where results are written.
	workspace *workspace.Workspace

	// explored is set once Run was called.
	explored bool

	// runLock guards cancelRun and terminated.
	runLock sync.Mutex

	// cancelRun stops a running exploration.
	cancelRun context.CancelFunc

	// terminated is set once Terminate was called.
	terminated bool

	// Events describes the event system for the Explorer.
	Events ExplorerEvents

	logger *logging.Logger
}

// NewExplorer returns an Explorer with a fresh chain holding no accounts.
func NewExplorer(projectConfig config.ProjectConfig) (*Explorer, error) {
	if err := projectConfig.Validate(); err != nil {
		return nil, err
	}

	testChain, err := chain.NewTestChain(nil, &projectConfig.Chain)
	if err != nil {
		return nil, fmt.Errorf("could not create the test chain: %w", err)
	}

	explorer := &Explorer{
		config:               projectConfig,
		chain:                testChain,
		symbolicValuesByName: make(map[string]*SymbolicValue),
		valueSet:             valuegeneration.NewValueSet(),
		workspace:            workspace.New(projectConfig.Exploration.WorkspaceDir, projectConfig.Exploration.WorkspacePrefix),
		logger:               logging.GlobalLogger.NewSubLogger("module", logging.EXPLORER_SERVICE),
	}

	// Deployments are ordered by the chain, so they are tracked through its events.
	testChain.Events.ContractDeploymentAdded.Subscribe(func(event chain.ContractDeploymentAddedEvent) error {
		if event.Contract.Dynamic {
			explorer.logger.Debug("Contract created at ", event.Contract.Address.Hex(), " by another contract")
		}
		explorer.valueSet.AddAddress(event.Contract.Address)
		explorer.valueSet.SeedFromBytecode(event.Contract.RuntimeBytecode)
		return nil
	})
	return explorer, nil
}

// Config returns the project configuration of the Explorer.
func (e *Explorer) Config() config.ProjectConfig {
	return e.config
}

// Chain returns the chain of the Explorer.
func (e *Explorer) Chain() *chain.TestChain {
	return e.chain
}

// Workspace returns the workspace results are written to.
func (e *Explorer) Workspace() *workspace.Workspace {
	return e.workspace
}

// Accounts returns the accounts created through CreateAccount.
func (e *Explorer) Accounts() []common.Address {
	return append([]common.Address{}, e.accounts...)
}

// Contracts returns the deployed contracts.
func (e *Explorer) Contracts() []*ContractAccount {
	return append([]*ContractAccount{}, e.contracts...)
}

// SymbolicValues returns the symbolic values, in creation order.
func (e *Explorer) SymbolicValues() []*SymbolicValue {
	return append([]*SymbolicValue{}, e.symbolicValues...)
}

// Plan returns the calls recorded for exploration.
func (e *Explorer) Plan() []*PlannedCall {
	return append([]*PlannedCall{}, e.plan...)
}

// CreateAccount creates an account holding balance wei.
func (e *Explorer) CreateAccount(balance *big.Int) (common.Address, error) {
	if e.explored {
		return common.Address{}, ErrAlreadyExplored
	}

	addr := utils.SequentialAddress(len(e.accounts))
	if err := e.chain.FundAccount(addr, balance); err != nil {
		return common.Address{}, err
	}
	e.accounts = append(e.accounts, addr)
	e.valueSet.AddAddress(addr)
	e.valueSet.AddInteger(balance)
	e.logger.Debug("Created account ", addr.Hex(), " with balance ", balance.String())
	return addr, nil
}

// SolidityCreateContract compiles Solidity source and deploys the contract named contractName from owner, passing
// args to its constructor.
func (e *Explorer) SolidityCreateContract(ctx context.Context, source string, owner common.Address, contractName string, args ...any) (*ContractAccount, error) {
	if e.explored {
		return nil, ErrAlreadyExplored
	}

	e.logger.Info("Compiling ", contractName)
	compiled, warnings, err := compilation.CompileSource(ctx, e.config.Compilation, source, contractName+".sol")
	if err != nil {
		return nil, fmt.Errorf("could not compile %s: %w", contractName, err)
	}
	if warnings != "" {
		e.logger.Debug("Compiler warnings:\n", warnings)
	}

	contract, sourcePath, err := compiled.FindContract(contractName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractNotFound, err)
	}
	e.valueSet.SeedFromAst(compiled.SourceAst(sourcePath))
	if e.compilerVersion == "" {
		e.compilerVersion = compiled.CompilerVersion
	}

	account, err := e.CreateContract(contract, owner, contractName, args...)
	if err != nil {
		return nil, err
	}
	account.source = source
	return account, nil
}

// CreateContract deploys a compiled contract from owner, passing args to its constructor.
func (e *Explorer) CreateContract(contract *compilationTypes.CompiledContract, owner common.Address, name string, args ...any) (*ContractAccount, error) {
	if e.explored {
		return nil, ErrAlreadyExplored
	}
	if len(e.plan) > 0 {
		return nil, fmt.Errorf("contract %s must be deployed before symbolic calls are recorded", name)
	}
	for _, existing := range e.contracts {
		if existing.name == name {
			return nil, fmt.Errorf("a contract named %s was already deployed", name)
		}
	}

	constructorArgs, err := convertArgs(contract.Abi.Constructor.Inputs, args, false)
	if err != nil {
		return nil, fmt.Errorf("invalid constructor arguments for %s: %w", name, err)
	}
	data, err := contract.GetDeploymentMessageData(constructorArgs)
	if err != nil {
		return nil, fmt.Errorf("could not encode the deployment of %s: %w", name, err)
	}

	addr, results, err := e.chain.DeployContract(owner, data, nil)
	if err != nil {
		account := &ContractAccount{name: name, compiled: contract}
		if results != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrDeploymentFailed, name, account.describeFailure(results))
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDeploymentFailed, name, err)
	}

	account := &ContractAccount{
		explorer:        e,
		name:            name,
		address:         addr,
		deployer:        owner,
		compiled:        contract,
		constructorArgs: constructorArgs,
		runtimeBytecode: e.chain.GetCode(addr),
	}
	e.contracts = append(e.contracts, account)
	e.logger.Info("Deployed ", name, " at ", addr.Hex())
	return account, nil
}

// MakeSymbolicValue creates a uint256 symbolic value.
func (e *Explorer) MakeSymbolicValue(name string) (*SymbolicValue, error) {
	return e.MakeSymbolicValueOfType(name, "uint256")
}

// MakeSymbolicValueOfType creates a symbolic value of the given Solidity type. Names must be unique.
func (e *Explorer) MakeSymbolicValueOfType(name string, typeName string) (*SymbolicValue, error) {
	if e.explored {
		return nil, ErrAlreadyExplored
	}
	if name == "" {
		return nil, fmt.Errorf("symbolic values must be named")
	}
	if _, exists := e.symbolicValuesByName[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbolicValue, name)
	}
	typ, err := abiutils.ParseSolidityType(typeName)
	if err != nil {
		return nil, fmt.Errorf("invalid type for symbolic value %s: %w", name, err)
	}

	symbolic := &SymbolicValue{name: name, typ: typ, index: len(e.symbolicValues)}
	e.symbolicValues = append(e.symbolicValues, symbolic)
	e.symbolicValuesByName[name] = symbolic
	e.logger.Debug("Created symbolic value ", symbolic.String())
	return symbolic, nil
}

// SymbolicValue returns the symbolic value with the given name, or nil if none exists.
func (e *Explorer) SymbolicValue(name string) *SymbolicValue {
	return e.symbolicValuesByName[name]
}

// executeConcreteCall executes a call without symbolic arguments on the chain.
func (e *Explorer) executeConcreteCall(call *PlannedCall) (*CallResult, error) {
	data, _, err := call.concretize(nil)
	if err != nil {
		return nil, err
	}
	to := call.Contract.Address()
	results, err := e.chain.SendMessage(e.chain.NewMessage(call.From, &to, call.Value, data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCallFailed, call.String(), err)
	}
	e.concreteCalls = append(e.concreteCalls, call.String())

	result := &CallResult{Call: call, Results: results}
	if results.Failed() {
		return result, fmt.Errorf("%w: %s: %s", ErrCallFailed, call.String(), call.Contract.describeFailure(results))
	}
	if values, err := call.Method.Outputs.Unpack(results.ExecutionResult.ReturnData); err == nil {
		result.ReturnValues = values
	}
	e.logger.Debug("Executed ", call.String())
	return result, nil
}

// Terminate stops a running exploration, or makes a later Run stop right away. Results gathered so far are still
// written.
func (e *Explorer) Terminate() {
	e.runLock.Lock()
	defer e.runLock.Unlock()
	e.terminated = true
	if e.cancelRun != nil {
		e.cancelRun()
	}
}

// Close releases the resources of the Explorer's chain. The Explorer must not be used afterward.
func (e *Explorer) Close() {
	e.chain.Close()
}
