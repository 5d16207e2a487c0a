package valuegeneration

import (
	"bytes"
	"fmt"
	"math/big"
	"math/rand"
	"sort"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/utils"
)

// DomainConfig bounds the candidate domains built for symbolic values.
type DomainConfig struct {
	// MaxCandidates is the largest amount of candidates a domain may hold.
	MaxCandidates int

	// RandomCandidates is the amount of random values added to a domain, after every other source.
	RandomCandidates int
}

// CandidateDomain returns the concrete values a symbolic value of type typ is explored with, as Go values the abi
// package packs for typ. Candidates are drawn, in order of priority, from the boundaries of the type, the values of
// set and random values from rng. Once MaxCandidates is reached, lower priority candidates are dropped. The result
// holds no duplicates and is sorted for integer and address types.
func CandidateDomain(typ abi.Type, set *ValueSet, rng *rand.Rand, config DomainConfig) ([]any, error) {
	if config.MaxCandidates <= 0 {
		return nil, fmt.Errorf("a candidate domain must allow at least one candidate")
	}
	builder := &domainBuilder{
		limit: config.MaxCandidates,
		seen:  make(map[string]bool),
	}

	switch typ.T {
	case abi.UintTy, abi.IntTy:
		signed := typ.T == abi.IntTy
		for _, b := range integerBoundaries(signed, typ.Size) {
			builder.addInteger(typ, b)
		}
		for _, b := range set.Integers() {
			builder.addInteger(typ, b)
			if signed {
				builder.addInteger(typ, new(big.Int).Neg(b))
			}
		}
		for i := 0; i < config.RandomCandidates; i++ {
			random := new(big.Int).SetBytes(randomBytes(rng, typ.Size/8))
			builder.addInteger(typ, utils.ConstrainIntegerToBitLength(random, signed, typ.Size))
		}
		sort.SliceStable(builder.values, func(i, j int) bool {
			x, _ := AbiValueToInteger(builder.values[i])
			y, _ := AbiValueToInteger(builder.values[j])
			return x.Cmp(y) < 0
		})

	case abi.AddressTy:
		builder.add(common.Address{})
		for _, addr := range set.Addresses() {
			builder.add(addr)
		}
		for i := 0; i < config.RandomCandidates; i++ {
			builder.add(common.BytesToAddress(randomBytes(rng, common.AddressLength)))
		}
		sort.SliceStable(builder.values, func(i, j int) bool {
			x, y := builder.values[i].(common.Address), builder.values[j].(common.Address)
			return bytes.Compare(x[:], y[:]) < 0
		})

	case abi.BoolTy:
		builder.add(false)
		builder.add(true)

	case abi.StringTy:
		builder.add("")
		for _, s := range set.Strings() {
			builder.add(s)
		}
		for i := 0; i < config.RandomCandidates; i++ {
			builder.add(randomString(rng, 1+rng.Intn(32)))
		}

	case abi.BytesTy:
		builder.add([]byte{})
		for _, b := range set.Bytes() {
			builder.add(b)
		}
		for i := 0; i < config.RandomCandidates; i++ {
			builder.add(randomBytes(rng, 1+rng.Intn(64)))
		}

	case abi.FixedBytesTy:
		builder.add(fixedBytes(typ, nil))
		builder.add(fixedBytes(typ, bytes.Repeat([]byte{0xff}, typ.Size)))
		for _, b := range set.Bytes() {
			if len(b) <= typ.Size {
				builder.add(fixedBytes(typ, b))
			}
		}
		for i := 0; i < config.RandomCandidates; i++ {
			builder.add(fixedBytes(typ, randomBytes(rng, typ.Size)))
		}

	default:
		return nil, fmt.Errorf("symbolic values of type %s are not supported", typ.String())
	}
	return builder.values, nil
}

// integerBoundaries returns the values at the edges of an integer type's range.
func integerBoundaries(signed bool, bitLength int) []*big.Int {
	minValue, maxValue := utils.GetIntegerConstraints(signed, bitLength)
	one := big.NewInt(1)
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		maxValue,
		new(big.Int).Sub(maxValue, one),
	}
	if signed {
		values = append(values, big.NewInt(-1), minValue, new(big.Int).Add(minValue, one))
	} else {
		half := new(big.Int).Lsh(one, uint(bitLength-1))
		values = append(values, big.NewInt(2), half, new(big.Int).Sub(half, one))
	}
	return values
}

// domainBuilder accumulates unique candidates until its limit.
type domainBuilder struct {
	limit  int
	values []any
	seen   map[string]bool
}

func (d *domainBuilder) add(value any) {
	if len(d.values) >= d.limit {
		return
	}
	key := FormatAbiValue(value)
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.values = append(d.values, value)
}

// addInteger adds b if it is representable by typ.
func (d *domainBuilder) addInteger(typ abi.Type, b *big.Int) {
	if utils.IntegerInBounds(b, typ.T == abi.IntTy, typ.Size) {
		d.add(IntegerToAbiValue(typ, b))
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	_, _ = rng.Read(b)
	return b
}

func randomString(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}
