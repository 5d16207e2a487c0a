package workspace

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatTokenAmount formats a token amount in its smallest unit as a decimal amount of whole tokens, e.g. 1500 with
// 3 decimals is "1.5". The raw amount is appended when decimals is non-zero, so no precision is lost.
func FormatTokenAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "?"
	}
	if decimals == 0 {
		return amount.String()
	}
	scaled := decimal.NewFromBigInt(amount, -int32(decimals))
	return scaled.String() + " (" + amount.String() + ")"
}

// FormatEther formats an amount of wei in ether.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "?"
	}
	return decimal.NewFromBigInt(wei, -18).String() + " ETH"
}
