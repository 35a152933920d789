package ledger

import (
	"errors"
	"testing"

	"github.com/erazemk/poshledger/internal/model"
)

var owner = model.Identity{UserID: 1, Username: "ana", Role: model.RoleUser}

func validInput() Input {
	return Input{
		ItemName:      "  Lululemon Align  ",
		Quantity:      "2",
		OriginalPrice: "20",
		SoldPrice:     "50",
		PurchaseDate:  "2024-03-01",
		Store:         "Goodwill",
	}
}

func TestBuildDerivesFigures(t *testing.T) {
	item, err := Build(owner, validInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if item.Name != "Lululemon Align" {
		t.Errorf("expected trimmed name, got %q", item.Name)
	}
	if item.OwnerID != owner.UserID {
		t.Errorf("expected owner %d, got %d", owner.UserID, item.OwnerID)
	}
	if item.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", item.Quantity)
	}
	if !item.PoshmarkFee.Equal(dec("10")) {
		t.Errorf("expected fee 10.00, got %s", item.PoshmarkFee)
	}
	if !item.Profit.Equal(dec("20")) {
		t.Errorf("expected profit 20.00, got %s", item.Profit)
	}
	if item.ReturnBy.String() != "2024-03-31" {
		t.Errorf("expected return by 2024-03-31, got %s", item.ReturnBy)
	}
}

func TestBuildUnsoldHasNoFeeOrProfit(t *testing.T) {
	for _, sold := range []string{"", "0", "nope", "-12"} {
		in := validInput()
		in.SoldPrice = sold
		in.OriginalPrice = "35.10"

		item, err := Build(owner, in)
		if err != nil {
			t.Fatalf("Build(sold=%q): %v", sold, err)
		}
		if !item.SoldPrice.IsZero() || !item.PoshmarkFee.IsZero() || !item.Profit.IsZero() {
			t.Errorf("sold=%q: expected zero sold/fee/profit, got %s/%s/%s",
				sold, item.SoldPrice, item.PoshmarkFee, item.Profit)
		}
	}
}

func TestBuildLenientMoney(t *testing.T) {
	in := validInput()
	in.OriginalPrice = "twenty"

	item, err := Build(owner, in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !item.OriginalPrice.IsZero() {
		t.Errorf("expected unparsable price to read as 0, got %s", item.OriginalPrice)
	}
	if !item.Profit.Equal(dec("40")) {
		t.Errorf("expected profit 40.00, got %s", item.Profit)
	}

	in = validInput()
	in.SoldPrice = "1e10000000"
	item, err = Build(owner, in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !item.SoldPrice.IsZero() || !item.PoshmarkFee.IsZero() || !item.Profit.IsZero() {
		t.Errorf("out of range sold price: got %s/%s/%s, want zeros", item.SoldPrice, item.PoshmarkFee, item.Profit)
	}
}

func TestBuildValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Input)
		fields []string
	}{
		{"empty name", func(in *Input) { in.ItemName = "   " }, []string{"item_name"}},
		{"bad quantity", func(in *Input) { in.Quantity = "1.5" }, []string{"quantity"}},
		{"negative quantity", func(in *Input) { in.Quantity = "-3" }, []string{"quantity"}},
		{"missing date", func(in *Input) { in.PurchaseDate = "" }, []string{"purchase_date"}},
		{"bad date", func(in *Input) { in.PurchaseDate = "03/01/2024" }, []string{"purchase_date"}},
		{"missing store", func(in *Input) { in.Store = "" }, []string{"store"}},
		{"everything", func(in *Input) { *in = Input{} }, []string{"item_name", "quantity", "purchase_date", "store"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)

			item, err := Build(owner, in)
			if item != nil {
				t.Error("expected no item on validation failure")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tt.fields), verrs)
			}
			for i, f := range tt.fields {
				if verrs[i].Field != f {
					t.Errorf("error %d: expected field %q, got %q", i, f, verrs[i].Field)
				}
			}
		})
	}
}

func TestBuildRequiresIdentity(t *testing.T) {
	_, err := Build(model.Identity{}, validInput())
	if !errors.Is(err, ErrNotPermitted) {
		t.Errorf("expected ErrNotPermitted, got %v", err)
	}
}

func TestSummarizeBuiltItems(t *testing.T) {
	a, _ := Build(owner, validInput())
	in := validInput()
	in.SoldPrice = ""
	in.Quantity = "1"
	b, _ := Build(owner, in)

	s := Summarize([]model.Item{*a, *b})
	if s.Items != 2 || s.Sold != 1 || s.TotalQuantity != 3 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if !s.TotalCost.Equal(dec("40")) {
		t.Errorf("expected total cost 40, got %s", s.TotalCost)
	}
	if !s.TotalRevenue.Equal(dec("50")) || !s.TotalFees.Equal(dec("10")) || !s.TotalProfit.Equal(dec("20")) {
		t.Errorf("unexpected totals: %+v", s)
	}
}
