package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/poshledger/internal/model"
)

// Header is the column layout written by WriteCSV and read by ReadCSV.
var Header = []string{
	"Item Name",
	"Quantity",
	"Original Price",
	"Sold Price",
	"Poshmark Fee",
	"Profit",
	"Purchase Date",
	"Store",
	"Return By",
	"Image URL",
}

// Column counts of the accepted row layouts. The legacy layout has no dates
// or store: Item Name, Quantity, Original Price, Sold Price, Poshmark Fee,
// Profit and an optional Image URL.
const (
	columnsCurrent  = 10
	columnsLegacy   = 7
	requiredCurrent = columnsCurrent - 1
	requiredLegacy  = columnsLegacy - 1
)

// WriteCSV writes the header and one row per item to w.
func WriteCSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range items {
		if err := cw.Write(encodeRow(&items[i])); err != nil {
			return fmt.Errorf("writing csv row for item %d: %w", items[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func encodeRow(it *model.Item) []string {
	return []string{
		it.Name,
		strconv.Itoa(it.Quantity),
		formatMoney(it.OriginalPrice),
		formatMoney(it.SoldPrice),
		formatMoney(it.PoshmarkFee),
		formatMoney(it.Profit),
		it.PurchaseDate.String(),
		it.Store,
		it.ReturnBy.String(),
		it.ImageURL,
	}
}

// formatMoney writes exactly two decimals; zero is written as an empty cell
// so "not applicable" reads differently from a real amount.
func formatMoney(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// RowResult is the outcome of decoding one data row. Line is the 1-based
// line number in the file. Exactly one of Item and Err is set.
type RowResult struct {
	Line int
	Item *model.Item
	Err  error
}

// ReadCSV decodes every data row of r. The first row is a header and is
// skipped unread. A row that cannot be decoded is returned with its error
// and does not stop the rest of the file. Only a read failure of r itself
// is returned as an error.
func ReadCSV(r io.Reader) ([]RowResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width is checked per layout

	var results []RowResult
	header := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if header {
				header = false
				continue
			}
			results = append(results, RowResult{Line: perr.StartLine, Err: fmt.Errorf("malformed csv: %w", perr.Err)})
			continue
		}
		if err != nil {
			return results, fmt.Errorf("reading csv: %w", err)
		}

		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)
		item, err := decodeRow(record)
		if err != nil {
			results = append(results, RowResult{Line: line, Err: err})
			continue
		}
		results = append(results, RowResult{Line: line, Item: item})
	}
	return results, nil
}

// decodeRow maps a record onto an item. Fee and profit are taken as written.
func decodeRow(record []string) (*model.Item, error) {
	switch n := len(record); {
	case n == requiredCurrent || n == columnsCurrent:
		return decodeCurrent(record)
	case n == requiredLegacy || n == columnsLegacy:
		return decodeLegacy(record)
	default:
		return nil, fmt.Errorf("expected %d columns, got %d", columnsCurrent, n)
	}
}

func decodeCurrent(record []string) (*model.Item, error) {
	item, err := decodeFigures(record)
	if err != nil {
		return nil, err
	}

	if item.PurchaseDate, err = parseOptionalDate(record[6]); err != nil {
		return nil, fmt.Errorf("purchase date: %w", err)
	}
	item.Store = strings.TrimSpace(record[7])
	if item.ReturnBy, err = parseOptionalDate(record[8]); err != nil {
		return nil, fmt.Errorf("return by: %w", err)
	}
	if item.ReturnBy.IsZero() {
		item.ReturnBy = item.PurchaseDate.AddDays(model.ReturnWindowDays)
	}
	if len(record) > 9 {
		item.ImageURL = strings.TrimSpace(record[9])
	}
	return item, nil
}

func decodeLegacy(record []string) (*model.Item, error) {
	item, err := decodeFigures(record)
	if err != nil {
		return nil, err
	}
	if len(record) > 6 {
		item.ImageURL = strings.TrimSpace(record[6])
	}
	return item, nil
}

// decodeFigures reads the six leading columns shared by both layouts.
func decodeFigures(record []string) (*model.Item, error) {
	qty, err := ParseQuantity(record[1])
	if err != nil {
		return nil, err
	}
	return &model.Item{
		Name:          strings.TrimSpace(record[0]),
		Quantity:      qty,
		OriginalPrice: parsePrice(record[2]),
		SoldPrice:     parsePrice(record[3]),
		PoshmarkFee:   ParseMoney(record[4]),
		Profit:        ParseMoney(record[5]),
	}, nil
}

// RowFailure names a data row that was not imported and why.
type RowFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport is the outcome of one CSV import.
type ImportReport struct {
	Imported int          `json:"imported"`
	Failed   []RowFailure `json:"failed"`
}

// InsertFunc persists one imported item.
type InsertFunc func(ctx context.Context, item *model.Item) error

// Import decodes r and hands every good row, owned by id, to insert. Rows
// are handled one at a time: a failing row is recorded in the report and the
// import goes on with the next one.
func Import(ctx context.Context, id model.Identity, r io.Reader, insert InsertFunc) (*ImportReport, error) {
	if !id.Valid() {
		return nil, ErrNotPermitted
	}

	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Failed: []RowFailure{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if row.Err != nil {
			report.Failed = append(report.Failed, RowFailure{Line: row.Line, Reason: row.Err.Error()})
			continue
		}
		row.Item.OwnerID = id.UserID
		if err := insert(ctx, row.Item); err != nil {
			report.Failed = append(report.Failed, RowFailure{Line: row.Line, Reason: err.Error()})
			continue
		}
		report.Imported++
	}
	return report, nil
}
