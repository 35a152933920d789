// Package ledger holds the item economics: marketplace fee and profit
// calculation, form validation and the CSV import/export format.
package ledger

import "github.com/shopspring/decimal"

var (
	// FlatFee is charged on sales below FlatFeeLimit.
	FlatFee = decimal.RequireFromString("2.95")

	// FlatFeeLimit is the sold price from which the percentage fee applies.
	FlatFeeLimit = decimal.NewFromInt(15)

	// FeeRate is the share of the sold price taken at or above FlatFeeLimit.
	FeeRate = decimal.RequireFromString("0.20")
)

// Fee returns the marketplace fee for a sale at the given price.
// Unsold items (price <= 0) carry no fee.
func Fee(sold decimal.Decimal) decimal.Decimal {
	if !sold.IsPositive() {
		return decimal.Zero
	}
	if sold.LessThan(FlatFeeLimit) {
		return FlatFee
	}
	return sold.Mul(FeeRate).Round(2)
}

// Profit returns sold - fee - original rounded to cents, or zero when unsold.
func Profit(sold, fee, original decimal.Decimal) decimal.Decimal {
	if !sold.IsPositive() {
		return decimal.Zero
	}
	return sold.Sub(fee).Sub(original).Round(2)
}
