package abiutils

import (
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/core/vm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescribeExecutionError verifies panics and revert strings are decoded from return data.
func TestDescribeExecutionError(t *testing.T) {
	panicData, err := panicMethod.Inputs.Pack(big.NewInt(PanicCodeArithmeticUnderOverflow))
	require.NoError(t, err)
	panicData = append(append([]byte{}, panicMethod.ID...), panicData...)
	assert.Equal(t, "panic: arithmetic underflow", DescribeExecutionError(nil, vm.ErrExecutionReverted, panicData))

	errorData, err := errorMethod.Inputs.Pack("insufficient balance")
	require.NoError(t, err)
	errorData = append(append([]byte{}, errorMethod.ID...), errorData...)
	assert.Equal(t, "revert: insufficient balance", DescribeExecutionError(nil, vm.ErrExecutionReverted, errorData))

	assert.Equal(t, vm.ErrExecutionReverted.Error(), DescribeExecutionError(nil, vm.ErrExecutionReverted, nil))
	assert.Equal(t, "out of gas", DescribeExecutionError(nil, errors.New("out of gas"), nil))
	assert.Empty(t, DescribeExecutionError(nil, nil, nil))
}
