package ledger

import (
	"errors"
	"strings"

	"github.com/erazemk/poshledger/internal/model"
)

// ErrNotPermitted is returned when an operation runs without an authenticated user.
var ErrNotPermitted = errors.New("operation not permitted")

// Input is the raw text of one add/edit form submission.
type Input struct {
	ItemName      string
	Quantity      string
	OriginalPrice string
	SoldPrice     string
	PurchaseDate  string
	Store         string
}

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every rejected field of an Input.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "invalid item: " + strings.Join(msgs, "; ")
}

// Build validates in and returns the record it describes, owned by id.
// Fee, profit and return date are always derived here.
func Build(id model.Identity, in Input) (*model.Item, error) {
	if !id.Valid() {
		return nil, ErrNotPermitted
	}

	var errs ValidationErrors
	item := &model.Item{OwnerID: id.UserID}

	item.Name = strings.TrimSpace(in.ItemName)
	if item.Name == "" {
		errs = append(errs, FieldError{"item_name", "item name is required"})
	}

	qty, err := ParseQuantity(in.Quantity)
	if err != nil {
		errs = append(errs, FieldError{"quantity", err.Error()})
	}
	item.Quantity = qty

	if strings.TrimSpace(in.PurchaseDate) == "" {
		errs = append(errs, FieldError{"purchase_date", "purchase date is required"})
	} else if d, err := model.ParseDate(strings.TrimSpace(in.PurchaseDate)); err != nil {
		errs = append(errs, FieldError{"purchase_date", err.Error()})
	} else {
		item.PurchaseDate = d
	}

	item.Store = strings.TrimSpace(in.Store)
	if item.Store == "" {
		errs = append(errs, FieldError{"store", "store is required"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	item.OriginalPrice = parsePrice(in.OriginalPrice)
	item.SoldPrice = parsePrice(in.SoldPrice)
	Derive(item)
	return item, nil
}

// Derive recomputes the fee, profit and return date of item from its inputs.
func Derive(item *model.Item) {
	item.PoshmarkFee = Fee(item.SoldPrice)
	item.Profit = Profit(item.SoldPrice, item.PoshmarkFee, item.OriginalPrice)
	item.ReturnBy = item.PurchaseDate.AddDays(model.ReturnWindowDays)
}
