package utils

import (
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHexStringToAddress verifies prefixed, unprefixed and odd length inputs all parse.
func TestHexStringToAddress(t *testing.T) {
	expected := common.HexToAddress("0x10000")
	for _, s := range []string{"0x10000", "10000", "0x0000000000000000000000000000000000010000"} {
		addr, err := HexStringToAddress(s)
		require.NoError(t, err)
		assert.Equal(t, expected, addr)
	}

	_, err := HexStringToAddress("0xzz")
	assert.Error(t, err)
	_, err = HexStringToAddress("0x" + "00112233445566778899aabbccddeeff0011223344")
	assert.Error(t, err)
}

// TestSequentialAddress verifies account addresses are spaced predictably.
func TestSequentialAddress(t *testing.T) {
	assert.Equal(t, common.HexToAddress("0x10000"), SequentialAddress(0))
	assert.Equal(t, common.HexToAddress("0x20000"), SequentialAddress(1))
	assert.NotEqual(t, SequentialAddress(2), SequentialAddress(3))
}
