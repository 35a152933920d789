package store

import "strings"

// Sort is a validated item list ordering.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort orders items by name, A to Z.
var DefaultSort = Sort{Field: "item_name"}

// sortColumns maps each sortable field to its ORDER BY expression. Money is
// stored as text, so it is cast to sort numerically.
var sortColumns = map[string]string{
	"item_name":      "item_name COLLATE NOCASE",
	"quantity":       "quantity",
	"original_price": "CAST(original_price AS REAL)",
	"sold_price":     "CAST(sold_price AS REAL)",
	"poshmark_fee":   "CAST(poshmark_fee AS REAL)",
	"profit":         "CAST(profit AS REAL)",
	"purchase_date":  "purchase_date",
	"store":          "store COLLATE NOCASE",
	"return_by":      "return_by",
}

// SortFields lists the accepted sort fields in display order.
var SortFields = []string{
	"item_name", "quantity", "original_price", "sold_price", "poshmark_fee",
	"profit", "purchase_date", "store", "return_by",
}

// ParseSort validates a requested field and direction. An unknown field
// falls back to DefaultSort; any direction other than "desc" is ascending.
func ParseSort(field, dir string) Sort {
	field = strings.ToLower(strings.TrimSpace(field))
	if _, ok := sortColumns[field]; !ok {
		return DefaultSort
	}
	return Sort{Field: field, Desc: strings.EqualFold(strings.TrimSpace(dir), "desc")}
}

// orderBy returns the ORDER BY clause for s.
func (s Sort) orderBy() string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = sortColumns[DefaultSort.Field]
		s.Desc = false
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return "ORDER BY " + col + " " + dir + ", id " + dir
}
