package explorer

import (
	"fmt"

	"github.com/crytic/medusa-geth/accounts/abi"
)

// SymbolicValue is a named placeholder for an unconstrained input. Calls given a SymbolicValue as an argument are
// explored once per candidate concrete value of it.
type SymbolicValue struct {
	// name uniquely identifies the value within its Explorer.
	name string

	// typ is the ABI type of the value.
	typ abi.Type

	// index is the position of the value in creation order.
	index int
}

// Name returns the unique name of the value.
func (s *SymbolicValue) Name() string {
	return s.name
}

// Type returns the ABI type of the value.
func (s *SymbolicValue) Type() abi.Type {
	return s.typ
}

// String returns a description of the value, such as "uint256 amount".
func (s *SymbolicValue) String() string {
	return fmt.Sprintf("%s %s", s.typ.String(), s.name)
}
