package valuegeneration

import (
	"encoding/json"
	"math/big"
	"math/rand"
	"testing"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, s string) abi.Type {
	typ, err := abi.NewType(s, "", nil)
	require.NoError(t, err)
	return typ
}

// TestValueSetSeeding ensures literals and bytecode constants are collected without duplicates.
func TestValueSetSeeding(t *testing.T) {
	ast := map[string]any{
		"id": 1, "nodeType": "SourceUnit",
		"nodes": []any{
			map[string]any{"id": 2, "nodeType": "Literal", "kind": "number", "value": "100"},
			map[string]any{"id": 3, "nodeType": "Literal", "kind": "number", "value": "1", "subdenomination": "ether"},
			map[string]any{"id": 4, "nodeType": "Literal", "kind": "string", "value": "insufficient balance"},
			map[string]any{"id": 5, "nodeType": "Literal", "kind": "number", "value": "100"},
		},
	}
	set := NewValueSet()
	set.SeedFromAst(ast)

	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.EqualValues(t, []*big.Int{big.NewInt(100), oneEther}, set.Integers())
	assert.EqualValues(t, []string{"insufficient balance"}, set.Strings())

	// PUSH1 0x64, PUSH1 0x04, CALLDATALOAD, GT, PUSH1 0x0c, JUMPI
	set = NewValueSet()
	set.SeedFromBytecode(hexutil.MustDecode("0x606460043511600c57"))
	assert.EqualValues(t, []*big.Int{
		big.NewInt(3), big.NewInt(4), big.NewInt(5),
		big.NewInt(11), big.NewInt(12), big.NewInt(13),
		big.NewInt(99), big.NewInt(100), big.NewInt(101),
	}, set.Integers())
}

// TestCandidateDomainIntegers ensures integer domains hold the type boundaries first, stay within their bounds and
// are sorted.
func TestCandidateDomainIntegers(t *testing.T) {
	set := NewValueSet()
	set.AddInteger(big.NewInt(100))
	set.AddInteger(big.NewInt(300))

	domain, err := CandidateDomain(mustType(t, "uint8"), set, rand.New(rand.NewSource(1)), DomainConfig{MaxCandidates: 64})
	require.NoError(t, err)
	assert.EqualValues(t, []any{uint8(0), uint8(1), uint8(2), uint8(100), uint8(127), uint8(128), uint8(254), uint8(255)}, domain)

	domain, err = CandidateDomain(mustType(t, "int8"), set, rand.New(rand.NewSource(1)), DomainConfig{MaxCandidates: 64})
	require.NoError(t, err)
	assert.EqualValues(t, []any{int8(-128), int8(-127), int8(-100), int8(-1), int8(0), int8(1), int8(100), int8(126), int8(127)}, domain)

	// The cap drops lower priority candidates but keeps the domain sorted.
	domain, err = CandidateDomain(mustType(t, "uint256"), set, rand.New(rand.NewSource(1)), DomainConfig{MaxCandidates: 3, RandomCandidates: 10})
	require.NoError(t, err)
	require.Len(t, domain, 3)
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.EqualValues(t, []any{big.NewInt(0), big.NewInt(1), maxUint256}, domain)
}

// TestCandidateDomainDeterminism ensures equal seeds produce equal domains.
func TestCandidateDomainDeterminism(t *testing.T) {
	config := DomainConfig{MaxCandidates: 32, RandomCandidates: 8}
	for _, typeName := range []string{"uint256", "int64", "address", "bytes32", "string", "bytes", "bool"} {
		typ := mustType(t, typeName)
		first, err := CandidateDomain(typ, NewValueSet(), rand.New(rand.NewSource(7)), config)
		require.NoError(t, err)
		second, err := CandidateDomain(typ, NewValueSet(), rand.New(rand.NewSource(7)), config)
		require.NoError(t, err)
		assert.EqualValues(t, first, second, typeName)
		assert.NotEmpty(t, first, typeName)
	}

	_, err := CandidateDomain(mustType(t, "uint256[]"), NewValueSet(), rand.New(rand.NewSource(7)), config)
	assert.Error(t, err)
}

// TestConvertToAbiValue ensures loosely typed values are converted to the types the abi package packs.
func TestConvertToAbiValue(t *testing.T) {
	v, err := ConvertToAbiValue(mustType(t, "uint8"), float64(18))
	require.NoError(t, err)
	assert.EqualValues(t, uint8(18), v)

	v, err = ConvertToAbiValue(mustType(t, "uint256"), "0x10")
	require.NoError(t, err)
	assert.EqualValues(t, big.NewInt(16), v)

	_, err = ConvertToAbiValue(mustType(t, "uint8"), 256)
	assert.Error(t, err)
	_, err = ConvertToAbiValue(mustType(t, "uint8"), 1.5)
	assert.Error(t, err)

	v, err = ConvertToAbiValue(mustType(t, "address"), "0x10000")
	require.NoError(t, err)
	assert.EqualValues(t, common.BigToAddress(big.NewInt(0x10000)), v)

	v, err = ConvertToAbiValue(mustType(t, "bytes4"), "0x01020304")
	require.NoError(t, err)
	assert.EqualValues(t, [4]byte{1, 2, 3, 4}, v)

	v, err = ConvertToAbiValue(mustType(t, "uint64[]"), []any{1, "2"})
	require.NoError(t, err)
	assert.EqualValues(t, []uint64{1, 2}, v)

	_, err = ConvertToAbiValue(mustType(t, "bool"), "true")
	assert.Error(t, err)

	// Decoded JSON numbers keep their exact value.
	v, err = ConvertToAbiValue(mustType(t, "uint256"), json.Number("1000000000000000000001"))
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("1000000000000000000001", 10)
	assert.EqualValues(t, expected, v)
	_, err = ConvertToAbiValue(mustType(t, "uint256"), json.Number("1.5"))
	assert.Error(t, err)
}
