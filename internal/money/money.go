// Package money holds the portal's fixed pricing and the conversion to the
// payment processor's minor currency unit (kobo). Amounts are decimal so the
// x100 conversion never goes through a binary float.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the only currency this portal charges in.
const Currency = "NGN"

// Fee is the fixed application fee: NGN 2,500.00.
var Fee = decimal.NewFromInt(2500)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a naira amount to kobo. The conversion must be exact;
// an amount with sub-kobo precision is a caller bug, not something to round.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	kobo := amount.Mul(hundred)
	if !kobo.IsInteger() {
		return 0, fmt.Errorf("amount %s is not exact in kobo", amount)
	}
	return kobo.IntPart(), nil
}

// FromMinorUnits converts kobo back to a naira amount (webhook payloads carry
// the amount in kobo).
func FromMinorUnits(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Div(hundred)
}
