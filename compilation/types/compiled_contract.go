package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"golang.org/x/exp/slices"
)

// CompiledContract represents a single contract unit from a smart contract compilation.
type CompiledContract struct {
	// Abi describes the contract's constructor, methods, events and errors.
	Abi abi.ABI

	// InitBytecode describes the bytecode used to deploy a contract.
	InitBytecode []byte

	// RuntimeBytecode represents the bytecode expected to be deployed by InitBytecode. Constructor arguments and
	// immutables may make the actual deployed code differ.
	RuntimeBytecode []byte

	// SrcMapsInit describes the source mappings for InitBytecode.
	SrcMapsInit string

	// SrcMapsRuntime describes the source mappings for RuntimeBytecode.
	SrcMapsRuntime string

	// Kind describes the kind of contract, i.e. contract, library, interface.
	Kind ContractKind
}

// ParseABIFromInterface parses a generic object into an abi.ABI. Strings are parsed directly, anything else is
// serialized to JSON first.
func ParseABIFromInterface(i any) (*abi.ABI, error) {
	var s string
	if str, ok := i.(string); ok {
		s = str
	} else {
		b, err := json.Marshal(i)
		if err != nil {
			return nil, err
		}
		s = string(b)
	}

	result, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDeploymentMessageData returns the init bytecode with the ABI encoded constructor arguments appended, suitable
// for the data field of a contract creation message.
func (c *CompiledContract) GetDeploymentMessageData(args []any) ([]byte, error) {
	initBytecodeWithArgs := slices.Clone(c.InitBytecode)
	if len(c.Abi.Constructor.Inputs) != len(args) {
		return nil, fmt.Errorf("constructor expects %d argument(s) but %d were provided", len(c.Abi.Constructor.Inputs), len(args))
	}
	if len(args) > 0 {
		data, err := c.Abi.Pack("", args...)
		if err != nil {
			return nil, fmt.Errorf("could not encode constructor arguments due to error: %v", err)
		}
		initBytecodeWithArgs = append(initBytecodeWithArgs, data...)
	}
	return initBytecodeWithArgs, nil
}

// CompilerVersion returns the compiler version embedded in the runtime bytecode metadata, or the empty string if
// none was embedded.
func (c *CompiledContract) CompilerVersion() string {
	metadata := ExtractContractMetadata(c.RuntimeBytecode)
	if metadata == nil {
		return ""
	}
	return metadata.ExtractCompilerVersion()
}
