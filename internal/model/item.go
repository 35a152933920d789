package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnWindowDays is how long after purchase an item can still be returned to the store.
const ReturnWindowDays = 30

// Item is one tracked inventory item with its purchase and sale figures.
type Item struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	Name          string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	SoldPrice     decimal.Decimal `json:"sold_price"`
	PoshmarkFee   decimal.Decimal `json:"poshmark_fee"`
	Profit        decimal.Decimal `json:"profit"`
	PurchaseDate  Date            `json:"purchase_date"`
	Store         string          `json:"store"`
	ReturnBy      Date            `json:"return_by"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Sold reports whether the item has a recorded sale.
func (i *Item) Sold() bool { return i.SoldPrice.IsPositive() }

// Summary aggregates the figures of a list of items.
type Summary struct {
	Items         int             `json:"items"`
	Sold          int             `json:"sold"`
	TotalQuantity int             `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
}
