package workspace

import (
	"bytes"
	"sort"

	"github.com/crytic/medusa-geth/common"
	"golang.org/x/exp/maps"
)

// sortedAddresses returns the keys of m in ascending byte order.
func sortedAddresses[T any](m map[common.Address]T) []common.Address {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

func sortedKeys[T any](m map[string]T) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
