package abiutils

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/core/vm"
)

// Solidity `Panic(uint256)` error codes.
// Reference: https://docs.soliditylang.org/en/latest/control-structures.html#panic-via-assert-and-error-via-require
const (
	PanicCodeCompilerInserted              = 0x00
	PanicCodeAssertFailed                  = 0x01
	PanicCodeArithmeticUnderOverflow       = 0x11
	PanicCodeDivideByZero                  = 0x12
	PanicCodeEnumTypeConversionOutOfBounds = 0x21
	PanicCodeIncorrectStorageAccess        = 0x22
	PanicCodePopEmptyArray                 = 0x31
	PanicCodeOutOfBoundsArrayAccess        = 0x32
	PanicCodeAllocateTooMuchMemory         = 0x41
	PanicCodeCallUninitializedVariable     = 0x51
)

var (
	panicMethod = newSingleArgumentMethod("Panic", "uint256")
	errorMethod = newSingleArgumentMethod("Error", "string")
)

func newSingleArgumentMethod(name string, typ string) abi.Method {
	argType, err := abi.NewType(typ, "", nil)
	if err != nil {
		panic(err)
	}
	return abi.NewMethod(name, name, abi.Function, "", false, false, abi.Arguments{{Type: argType}}, abi.Arguments{})
}

// GetSolidityPanicCode returns the code of a `Panic(uint256)` revert, or nil if the error and return data do not
// represent one.
func GetSolidityPanicCode(returnError error, returnData []byte) *big.Int {
	if !errors.Is(returnError, vm.ErrExecutionReverted) || len(returnData) != 4+32 {
		return nil
	}
	if !bytes.Equal(returnData[:4], panicMethod.ID) {
		return nil
	}
	values, err := panicMethod.Inputs.Unpack(returnData[4:])
	if err != nil || len(values) == 0 {
		return nil
	}
	code, _ := values[0].(*big.Int)
	return code
}

// GetSolidityRevertErrorString returns the message of an `Error(string)` revert, or nil if the error and return data
// do not represent one.
func GetSolidityRevertErrorString(returnError error, returnData []byte) *string {
	if !errors.Is(returnError, vm.ErrExecutionReverted) || len(returnData) <= 4 {
		return nil
	}
	if !bytes.Equal(returnData[:4], errorMethod.ID) {
		return nil
	}
	values, err := errorMethod.Inputs.Unpack(returnData[4:])
	if err != nil || len(values) == 0 {
		return nil
	}
	message, ok := values[0].(string)
	if !ok {
		return nil
	}
	return &message
}

// GetSolidityCustomRevertError resolves a custom Solidity error from a revert using the provided ABI. Returns the
// error definition and its unpacked values, or nil for both if none could be resolved.
func GetSolidityCustomRevertError(contractAbi *abi.ABI, returnError error, returnData []byte) (*abi.Error, []any) {
	if contractAbi == nil || !errors.Is(returnError, vm.ErrExecutionReverted) || len(returnData) < 4 {
		return nil, nil
	}

	for _, abiError := range contractAbi.Errors {
		if !bytes.Equal(abiError.ID.Bytes()[:4], returnData[:4]) {
			continue
		}
		values, err := abiError.Inputs.Unpack(returnData[4:])
		if err == nil {
			matched := abiError
			return &matched, values
		}
	}
	return nil, nil
}

// GetPanicReason returns a human readable reason for a Solidity panic code.
func GetPanicReason(panicCode uint64) string {
	switch panicCode {
	case PanicCodeCompilerInserted:
		return "panic: compiler inserted panic"
	case PanicCodeAssertFailed:
		return "panic: assertion failed"
	case PanicCodeArithmeticUnderOverflow:
		return "panic: arithmetic underflow"
	case PanicCodeDivideByZero:
		return "panic: division by zero"
	case PanicCodeEnumTypeConversionOutOfBounds:
		return "panic: enum access out of bounds"
	case PanicCodeIncorrectStorageAccess:
		return "panic: incorrect storage access"
	case PanicCodePopEmptyArray:
		return "panic: pop on empty array"
	case PanicCodeOutOfBoundsArrayAccess:
		return "panic: out of bounds array access"
	case PanicCodeAllocateTooMuchMemory:
		return "panic: overallocation of memory"
	case PanicCodeCallUninitializedVariable:
		return "panic: call on uninitialized variable"
	default:
		return fmt.Sprintf("unknown panic code(%v)", panicCode)
	}
}

// DescribeExecutionError returns a short description of why execution failed, decoding Solidity reverts where
// possible. Returns the empty string if returnError is nil.
func DescribeExecutionError(contractAbi *abi.ABI, returnError error, returnData []byte) string {
	if returnError == nil {
		return ""
	}
	if code := GetSolidityPanicCode(returnError, returnData); code != nil {
		return GetPanicReason(code.Uint64())
	}
	if message := GetSolidityRevertErrorString(returnError, returnData); message != nil {
		return fmt.Sprintf("revert: %s", *message)
	}
	if customError, values := GetSolidityCustomRevertError(contractAbi, returnError, returnData); customError != nil {
		args := make([]string, 0, len(values))
		for _, v := range values {
			args = append(args, fmt.Sprintf("%v", v))
		}
		return fmt.Sprintf("revert: %s(%s)", customError.Name, strings.Join(args, ", "))
	}
	return returnError.Error()
}
