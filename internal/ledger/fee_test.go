package ledger

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFee(t *testing.T) {
	tests := []struct {
		sold string
		want string
	}{
		{"0", "0"},
		{"-5", "0"},
		{"0.01", "2.95"},
		{"10", "2.95"},
		{"14.99", "2.95"},
		{"15", "3.00"},
		{"15.01", "3.00"},
		{"15.03", "3.01"},
		{"50", "10.00"},
		{"100", "20.00"},
	}

	for _, tt := range tests {
		got := Fee(dec(tt.sold))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("Fee(%s) = %s, want %s", tt.sold, got, tt.want)
		}
	}
}

func TestProfit(t *testing.T) {
	tests := []struct {
		name            string
		sold, fee, orig string
		want            string
	}{
		{"unsold", "0", "0", "20", "0"},
		{"unsold ignores fee", "0", "2.95", "99.99", "0"},
		{"negative sold", "-1", "0", "5", "0"},
		{"percentage tier", "50", "10", "20", "20.00"},
		{"flat tier loss", "10", "2.95", "12", "-4.95"},
		{"rounds to cents", "33.333", "6.67", "10", "16.66"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Profit(dec(tt.sold), dec(tt.fee), dec(tt.orig))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Profit(%s, %s, %s) = %s, want %s", tt.sold, tt.fee, tt.orig, got, tt.want)
			}
		})
	}
}

func TestProfitWithDerivedFee(t *testing.T) {
	sold := dec("50")
	got := Profit(sold, Fee(sold), dec("20"))
	if !got.Equal(dec("20")) {
		t.Errorf("Profit(50, Fee(50), 20) = %s, want 20.00", got)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12.50"},
		{" 7 ", "7"},
		{"", "0"},
		{"abc", "0"},
		{"$5", "0"},
		{"1,000", "0"},
		{"3.456", "3.46"},
		{"-2", "-2"},
		{"1.5e2", "150"},
		{"999999999999999.99", "999999999999999.99"},
		{"1000000000000000", "0"},
		{"1e10000000", "0"},
		{"-1e10000000", "0"},
		{"1e-10000000", "0"},
		{"0.004", "0"},
		{"0.005", "0.01"},
		{strings.Repeat("1", 65), "0"},
	}

	for _, tt := range tests {
		got := ParseMoney(tt.in)
		if !got.Equal(dec(tt.want)) {
			t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 0 ", 0, false},
		{"", 0, true},
		{"2.5", 0, true},
		{"two", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuantity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
