package explorer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/chain/types"
	"github.com/crytic/pathfinder/compilation/abiutils"
	compilationTypes "github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/explorer/valuegeneration"
)

// ContractAccount is a contract deployed by an Explorer.
type ContractAccount struct {
	// explorer is the Explorer which deployed the contract.
	explorer *Explorer

	// name is the name of the contract.
	name string

	// address is the address the contract was deployed at.
	address common.Address

	// deployer is the account which deployed the contract.
	deployer common.Address

	// compiled is the compiled definition of the contract.
	compiled *compilationTypes.CompiledContract

	// source is the Solidity source the contract was compiled from, if any.
	source string

	// constructorArgs are the arguments the contract was constructed with.
	constructorArgs []any

	// runtimeBytecode is the code deployed at address.
	runtimeBytecode []byte
}

// Name returns the name of the contract.
func (c *ContractAccount) Name() string {
	return c.name
}

// Address returns the address the contract was deployed at.
func (c *ContractAccount) Address() common.Address {
	return c.address
}

// Deployer returns the account which deployed the contract.
func (c *ContractAccount) Deployer() common.Address {
	return c.deployer
}

// Abi returns the ABI of the contract.
func (c *ContractAccount) Abi() *abi.ABI {
	return &c.compiled.Abi
}

// CallOptions alter how a call is sent.
type CallOptions struct {
	// From is the sender of the call. Defaults to the contract's deployer.
	From *common.Address

	// Value is the amount of wei sent with the call. Defaults to zero.
	Value *big.Int
}

// CallResult describes the result of ContractAccount.Call.
type CallResult struct {
	// Planned is true if the call was recorded for exploration instead of executed.
	Planned bool

	// Call is the recorded call.
	Call *PlannedCall

	// Results are the results of an executed call.
	Results *types.MessageResults

	// ReturnValues are the decoded return values of a successfully executed call.
	ReturnValues []any
}

// Call calls a contract method, given by name or full signature, from the contract's deployer.
func (c *ContractAccount) Call(method string, args ...any) (*CallResult, error) {
	return c.CallWithOptions(CallOptions{}, method, args...)
}

// CallWithOptions calls a contract method, given by name or full signature. Arguments are converted to the method's
// input types; *SymbolicValue and *ContractAccount arguments are accepted too. Until the first call with a symbolic
// argument, calls are executed on the chain immediately. Any later call is recorded for exploration.
func (c *ContractAccount) CallWithOptions(opts CallOptions, method string, args ...any) (*CallResult, error) {
	e := c.explorer
	if e.explored {
		return nil, ErrAlreadyExplored
	}

	abiMethod, err := c.resolveMethod(method)
	if err != nil {
		return nil, err
	}
	convertedArgs, err := convertArgs(abiMethod.Inputs, args, true)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s.%s: %w", c.name, abiMethod.Sig, err)
	}

	call := &PlannedCall{
		Contract: c,
		Method:   abiMethod,
		From:     c.deployer,
		Value:    big.NewInt(0),
		args:     convertedArgs,
	}
	if opts.From != nil {
		call.From = *opts.From
	}
	if opts.Value != nil {
		call.Value = new(big.Int).Set(opts.Value)
	}

	if len(e.plan) > 0 || call.Symbolic() {
		e.plan = append(e.plan, call)
		e.logger.Debug("Recorded call ", call.String())
		return &CallResult{Planned: true, Call: call}, nil
	}
	return e.executeConcreteCall(call)
}

// resolveMethod finds a method by name or full signature.
func (c *ContractAccount) resolveMethod(method string) (*abi.Method, error) {
	methods := c.compiled.Abi.Methods
	if strings.Contains(method, "(") {
		signature := strings.ReplaceAll(method, " ", "")
		for _, m := range methods {
			if m.Sig == signature {
				m := m
				return &m, nil
			}
		}
		return nil, fmt.Errorf("%w: %s has no method with signature %s", ErrUnknownMethod, c.name, signature)
	}

	var matches []abi.Method
	for _, m := range methods {
		if m.RawName == method {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s has no method named %s", ErrUnknownMethod, c.name, method)
	case 1:
		return &matches[0], nil
	default:
		signatures := make([]string, len(matches))
		for i, m := range matches {
			signatures[i] = m.Sig
		}
		return nil, fmt.Errorf("method %s of %s is overloaded, use a full signature: %s", method, c.name, strings.Join(signatures, ", "))
	}
}

// convertArgs converts args to the Go types of inputs. Symbolic values are kept as placeholders if allowSymbolic
// is set, and must match the type of the input they are passed for.
func convertArgs(inputs abi.Arguments, args []any, allowSymbolic bool) ([]any, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d argument(s) but %d were provided", len(inputs), len(args))
	}

	converted := make([]any, len(args))
	for i, arg := range args {
		input := inputs[i]
		switch v := arg.(type) {
		case *SymbolicValue:
			if !allowSymbolic {
				return nil, fmt.Errorf("argument %d (%s) cannot be symbolic", i, input.Name)
			}
			if v.Type().String() != input.Type.String() {
				return nil, fmt.Errorf("argument %d (%s) is a %s but symbolic value %s is a %s", i, input.Name, input.Type.String(), v.Name(), v.Type().String())
			}
			converted[i] = v
			continue
		case *ContractAccount:
			arg = v.Address()
		}

		value, err := valuegeneration.ConvertToAbiValue(input.Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, input.Name, err)
		}
		converted[i] = value
	}
	return converted, nil
}

// describeFailure returns why a message executed for the contract failed.
func (c *ContractAccount) describeFailure(results *types.MessageResults) string {
	if results == nil || results.ExecutionResult == nil {
		return "message was not executed"
	}
	return abiutils.DescribeExecutionError(c.Abi(), results.ExecutionResult.Err, results.ExecutionResult.Revert())
}
