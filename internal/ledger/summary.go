package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/poshledger/internal/model"
)

// Summarize totals the figures of items.
func Summarize(items []model.Item) model.Summary {
	s := model.Summary{
		TotalCost:    decimal.Zero,
		TotalRevenue: decimal.Zero,
		TotalFees:    decimal.Zero,
		TotalProfit:  decimal.Zero,
	}
	for i := range items {
		it := &items[i]
		s.Items++
		s.TotalQuantity += it.Quantity
		s.TotalCost = s.TotalCost.Add(it.OriginalPrice)
		if it.Sold() {
			s.Sold++
			s.TotalRevenue = s.TotalRevenue.Add(it.SoldPrice)
		}
		s.TotalFees = s.TotalFees.Add(it.PoshmarkFee)
		s.TotalProfit = s.TotalProfit.Add(it.Profit)
	}
	return s
}
