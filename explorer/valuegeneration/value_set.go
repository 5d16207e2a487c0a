package valuegeneration

import (
	"bytes"
	"encoding/hex"
	"hash"
	"math/big"
	"sort"

	"github.com/crytic/medusa-geth/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/maps"
)

// ValueSet holds values of significance to the contracts under exploration, such as literals from their source,
// constants from their bytecode and the balances of known accounts. Candidate domains for symbolic values are drawn
// from it.
type ValueSet struct {
	// addresses holds known account addresses.
	addresses map[common.Address]any

	// integers holds integers keyed by their base 10 representation.
	integers map[string]*big.Int

	// strings holds string constants.
	strings map[string]any

	// bytes holds byte sequences keyed by the hex encoded Keccak-256 hash of their content.
	bytes map[string][]byte

	// hashProvider creates keys for bytes.
	hashProvider hash.Hash
}

// NewValueSet returns an empty ValueSet.
func NewValueSet() *ValueSet {
	return &ValueSet{
		addresses:    make(map[common.Address]any),
		integers:     make(map[string]*big.Int),
		strings:      make(map[string]any),
		bytes:        make(map[string][]byte),
		hashProvider: sha3.NewLegacyKeccak256(),
	}
}

// Clone creates a copy of the ValueSet.
func (vs *ValueSet) Clone() *ValueSet {
	return &ValueSet{
		addresses:    maps.Clone(vs.addresses),
		integers:     maps.Clone(vs.integers),
		strings:      maps.Clone(vs.strings),
		bytes:        maps.Clone(vs.bytes),
		hashProvider: sha3.NewLegacyKeccak256(),
	}
}

// Addresses returns the addresses in the set, in ascending byte order.
func (vs *ValueSet) Addresses() []common.Address {
	res := maps.Keys(vs.addresses)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i][:], res[j][:]) < 0
	})
	return res
}

// AddAddress adds an address to the set.
func (vs *ValueSet) AddAddress(a common.Address) {
	vs.addresses[a] = nil
}

// Integers returns the integers in the set, in ascending order.
func (vs *ValueSet) Integers() []*big.Int {
	res := maps.Values(vs.integers)
	sortIntegers(res)
	return res
}

// AddInteger adds an integer to the set.
func (vs *ValueSet) AddInteger(b *big.Int) {
	vs.integers[b.String()] = new(big.Int).Set(b)
}

// Strings returns the strings in the set, in ascending order.
func (vs *ValueSet) Strings() []string {
	res := maps.Keys(vs.strings)
	sort.Strings(res)
	return res
}

// AddString adds a string to the set.
func (vs *ValueSet) AddString(s string) {
	vs.strings[s] = nil
}

// Bytes returns the byte sequences in the set, in ascending order.
func (vs *ValueSet) Bytes() [][]byte {
	res := maps.Values(vs.bytes)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i], res[j]) < 0
	})
	return res
}

// AddBytes adds a byte sequence to the set.
func (vs *ValueSet) AddBytes(b []byte) {
	vs.hashProvider.Write(b)
	key := hex.EncodeToString(vs.hashProvider.Sum(nil))
	vs.hashProvider.Reset()
	vs.bytes[key] = common.CopyBytes(b)
}

// Len returns the total amount of values in the set.
func (vs *ValueSet) Len() int {
	return len(vs.addresses) + len(vs.integers) + len(vs.strings) + len(vs.bytes)
}

func sortIntegers(values []*big.Int) {
	sort.Slice(values, func(i, j int) bool {
		return values[i].Cmp(values[j]) < 0
	})
}
