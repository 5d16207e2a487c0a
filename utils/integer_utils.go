package utils

import "math/big"

// ConstrainIntegerToBitLength wraps b into the range representable by an integer of the given signedness and bit
// length, simulating two's complement overflow and underflow. Returns a new integer.
func ConstrainIntegerToBitLength(b *big.Int, signed bool, bitLength int) *big.Int {
	minValue, maxValue := GetIntegerConstraints(signed, bitLength)
	if b.Cmp(minValue) >= 0 && b.Cmp(maxValue) <= 0 {
		return new(big.Int).Set(b)
	}

	modulus := new(big.Int).Lsh(big.NewInt(1), uint(bitLength))
	wrapped := new(big.Int).Sub(b, minValue)
	wrapped.Mod(wrapped, modulus)
	return wrapped.Add(wrapped, minValue)
}

// GetIntegerConstraints returns the inclusive minimum and maximum values of an integer with the given signedness and
// bit length.
func GetIntegerConstraints(signed bool, bitLength int) (*big.Int, *big.Int) {
	if signed {
		// [-(2^(n-1)), 2^(n-1) - 1]
		maxValue := new(big.Int).Lsh(big.NewInt(1), uint(bitLength-1))
		minValue := new(big.Int).Neg(maxValue)
		maxValue.Sub(maxValue, big.NewInt(1))
		return minValue, maxValue
	}

	// [0, 2^n - 1]
	maxValue := new(big.Int).Lsh(big.NewInt(1), uint(bitLength))
	maxValue.Sub(maxValue, big.NewInt(1))
	return big.NewInt(0), maxValue
}

// IntegerInBounds reports whether b can be represented by an integer of the given signedness and bit length.
func IntegerInBounds(b *big.Int, signed bool, bitLength int) bool {
	minValue, maxValue := GetIntegerConstraints(signed, bitLength)
	return b.Cmp(minValue) >= 0 && b.Cmp(maxValue) <= 0
}
