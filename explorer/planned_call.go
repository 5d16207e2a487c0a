package explorer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/explorer/valuegeneration"
)

// PlannedCall is a contract call recorded for exploration. Its arguments may reference symbolic values.
type PlannedCall struct {
	// Contract is the contract called.
	Contract *ContractAccount

	// Method is the contract method called.
	Method *abi.Method

	// From is the sender of the call.
	From common.Address

	// Value is the amount of wei sent with the call.
	Value *big.Int

	// args holds concrete ABI values and *SymbolicValue placeholders.
	args []any
}

// Symbolic reports whether any argument of the call is symbolic.
func (p *PlannedCall) Symbolic() bool {
	for _, arg := range p.args {
		if _, ok := arg.(*SymbolicValue); ok {
			return true
		}
	}
	return false
}

// symbols returns the symbolic values the call references.
func (p *PlannedCall) symbols() []*SymbolicValue {
	symbols := make([]*SymbolicValue, 0)
	for _, arg := range p.args {
		if symbolic, ok := arg.(*SymbolicValue); ok {
			symbols = append(symbols, symbolic)
		}
	}
	return symbols
}

// concretize substitutes symbolic arguments with their value in assignment, returning encoded calldata and the
// concrete arguments.
func (p *PlannedCall) concretize(assignment map[*SymbolicValue]any) ([]byte, []any, error) {
	args := make([]any, len(p.args))
	for i, arg := range p.args {
		if symbolic, ok := arg.(*SymbolicValue); ok {
			value, assigned := assignment[symbolic]
			if !assigned {
				return nil, nil, fmt.Errorf("symbolic value %s has no assigned value", symbolic.Name())
			}
			arg = value
		}
		args[i] = arg
	}

	data, err := p.Contract.compiled.Abi.Pack(p.Method.Name, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not encode arguments of %s: %v", p.Method.Sig, err)
	}
	return data, args, nil
}

// String returns the call in Solidity-like notation, naming symbolic arguments.
func (p *PlannedCall) String() string {
	args := make([]string, len(p.args))
	for i, arg := range p.args {
		if symbolic, ok := arg.(*SymbolicValue); ok {
			args[i] = symbolic.Name()
		} else {
			args[i] = valuegeneration.FormatAbiValue(arg)
		}
	}
	call := fmt.Sprintf("%s.%s(%s) from %s", p.Contract.Name(), p.Method.RawName, strings.Join(args, ", "), p.From.Hex())
	if p.Value != nil && p.Value.Sign() > 0 {
		call += fmt.Sprintf(" value %s", p.Value)
	}
	return call
}
