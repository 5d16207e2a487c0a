package abiutils

import (
	"testing"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSolidityType verifies only sizes Solidity allows are accepted.
func TestParseSolidityType(t *testing.T) {
	for _, typeName := range []string{"uint8", "uint256", "int16", "bytes1", "bytes32", "uint64[]", "int8[3]", "address", "bool", "string", "bytes"} {
		_, err := ParseSolidityType(typeName)
		assert.NoError(t, err, typeName)
	}
	for _, typeName := range []string{"uint7", "int257", "uint264", "uint0", "bytes33", "uint7[]", "int12[2]", "uint", "notatype"} {
		_, err := ParseSolidityType(typeName)
		assert.Error(t, err, typeName)
	}

	typ, err := ParseSolidityType("uint128")
	require.NoError(t, err)
	assert.EqualValues(t, abi.UintTy, typ.T)
	assert.EqualValues(t, 128, typ.Size)
}
