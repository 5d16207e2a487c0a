package abiutils

import (
	"fmt"

	"github.com/crytic/medusa-geth/accounts/abi"
)

// ParseSolidityType parses a Solidity type name into an abi.Type. Unlike abi.NewType, it rejects integer widths which
// are not a multiple of 8 in 8..256 and fixed byte arrays outside of bytes1..bytes32, including within arrays.
func ParseSolidityType(typeName string) (abi.Type, error) {
	typ, err := abi.NewType(typeName, "", nil)
	if err != nil {
		return abi.Type{}, err
	}
	if err = checkTypeSizes(&typ); err != nil {
		return abi.Type{}, fmt.Errorf("invalid type %s: %w", typeName, err)
	}
	return typ, nil
}

// checkTypeSizes verifies the sizes of typ and its element types.
func checkTypeSizes(typ *abi.Type) error {
	switch typ.T {
	case abi.IntTy, abi.UintTy:
		if typ.Size == 0 || typ.Size%8 != 0 || typ.Size > 256 {
			return fmt.Errorf("integer size %d must be a multiple of 8 between 8 and 256", typ.Size)
		}
	case abi.FixedBytesTy:
		if typ.Size == 0 || typ.Size > 32 {
			return fmt.Errorf("fixed byte array size %d must be between 1 and 32", typ.Size)
		}
	case abi.SliceTy, abi.ArrayTy:
		return checkTypeSizes(typ.Elem)
	case abi.TupleTy:
		for _, elem := range typ.TupleElems {
			if err := checkTypeSizes(elem); err != nil {
				return err
			}
		}
	}
	return nil
}
