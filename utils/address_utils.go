package utils

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/crytic/medusa-geth/common"
)

// HexStringToAddress converts a hex string (with or without the "0x" prefix) to a common.Address. Returns an error
// if the string is not valid hex or is longer than an address.
func HexStringToAddress(s string) (common.Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) > common.AddressLength {
		return common.Address{}, fmt.Errorf("value 0x%s exceeds the length of an address", s)
	}
	return common.BytesToAddress(b), nil
}

// SequentialAddress returns the address for the n-th (zero based) account in a run. Addresses are spaced so they
// remain recognizable in traces: 0x10000, 0x20000, ...
func SequentialAddress(n int) common.Address {
	v := new(big.Int).Mul(big.NewInt(int64(n+1)), big.NewInt(0x10000))
	return common.BigToAddress(v)
}
