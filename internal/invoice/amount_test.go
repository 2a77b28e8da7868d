package invoice_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/invoice"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
		want  string
	}{
		{"plain", "118.00", true, "118"},
		{"thousands_separator", "1,234.50", true, "1234.5"},
		{"lakh_grouping", "1,00,000", true, "100000"},
		{"rupee_sign", "₹ 2,500.75", true, "2500.75"},
		{"negative", "-0.40", true, "-0.4"},
		{"blank_is_zero", "", true, "0"},
		{"whitespace_is_zero", "   ", true, "0"},
		{"not_applicable", "N/A", false, ""},
		{"words", "nine hundred", false, ""},
		{"lone_minus", "-", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := invoice.ParseAmount(tt.in)
			assert.Equal(t, tt.valid, a.Valid())
			assert.Equal(t, tt.in, a.Raw())
			if tt.valid {
				assert.True(t, a.Decimal().Equal(decimal.RequireFromString(tt.want)), "got %s", a)
			}
		})
	}
}

func TestCoerceAmount(t *testing.T) {
	assert.True(t, invoice.CoerceAmount(nil).Valid())
	assert.True(t, invoice.CoerceAmount(nil).Decimal().IsZero())

	a := invoice.CoerceAmount(json.Number("100.009"))
	require.True(t, a.Valid())
	assert.Equal(t, "100.009", a.String())

	assert.Equal(t, "1234.5", invoice.CoerceAmount("1,234.50").String())
	assert.Equal(t, "42", invoice.CoerceAmount(42).String())
	assert.Equal(t, "12.5", invoice.CoerceAmount(12.5).String())

	assert.False(t, invoice.CoerceAmount(true).Valid())
	assert.False(t, invoice.CoerceAmount(map[string]any{"x": 1}).Valid())
	assert.False(t, invoice.CoerceAmount([]any{1, 2}).Valid())
	assert.False(t, invoice.CoerceAmount(math.NaN()).Valid())
	assert.False(t, invoice.CoerceAmount(math.Inf(1)).Valid())
}

func TestAmount_ZeroValueIsValidZero(t *testing.T) {
	var a invoice.Amount
	assert.True(t, a.Valid())
	assert.True(t, a.Decimal().IsZero())
}

func TestAmount_InvalidPropagates(t *testing.T) {
	nan := invoice.ParseAmount("N/A")
	one := invoice.MustAmount("1")

	assert.False(t, one.Add(nan).Valid())
	assert.False(t, nan.Sub(one).Valid())
	assert.False(t, invoice.Sum(one, nan, one).Valid())
	assert.False(t, nan.Within(nan, decimal.NewFromInt(1000)))
	assert.False(t, one.Within(nan, decimal.NewFromInt(1000)))
	assert.False(t, nan.Equal(nan))
	assert.Equal(t, "NaN", nan.String())
	assert.Equal(t, "", nan.Fixed(2))
}

func TestAmount_Within(t *testing.T) {
	hundred := invoice.MustAmount("100.00")

	assert.True(t, hundred.Within(invoice.MustAmount("100.009"), decimal.NewFromInt(1)))
	assert.True(t, hundred.Within(invoice.MustAmount("100.009"), decimal.RequireFromString("0.01")))
	assert.False(t, hundred.Within(invoice.MustAmount("101.01"), decimal.RequireFromString("0.01")))
	assert.False(t, hundred.Within(invoice.MustAmount("101.00"), decimal.NewFromInt(1)), "comparison is strict")
	assert.True(t, hundred.Within(invoice.MustAmount("99.01"), decimal.NewFromInt(1)))
}

func TestSum(t *testing.T) {
	assert.True(t, invoice.Sum().Decimal().IsZero())
	assert.True(t, invoice.Sum().Valid())

	got := invoice.Sum(invoice.MustAmount("0.1"), invoice.MustAmount("0.2"))
	assert.True(t, got.Equal(invoice.MustAmount("0.3")), "decimal sums are exact, got %s", got)
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A invoice.Amount `json:"a"`
		B invoice.Amount `json:"b"`
	}{invoice.MustAmount("1234.50"), invoice.ParseAmount("N/A")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1234.5,"b":null}`, string(b))

	var out struct {
		A invoice.Amount `json:"a"`
		B invoice.Amount `json:"b"`
		C invoice.Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1,000.25","b":7,"c":null}`), &out))
	assert.Equal(t, "1000.25", out.A.String())
	assert.Equal(t, "7", out.B.String())
	assert.True(t, out.C.Valid())
}

func TestMustAmount_PanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { invoice.MustAmount("abc") })
}

func TestMerge_DropsDescriptiveFields(t *testing.T) {
	h := &invoice.Header{
		InvoiceNumber:  "INV-7",
		InvoiceDate:    "01-04-2024",
		PlaceOfSupply:  "Karnataka",
		PlaceOfOrigin:  "Maharashtra",
		GSTINSupplier:  "27ABCDE1234F1Z5",
		GSTINRecipient: "29FGHIJ5678K1Z2",
		ReceiverName:   "Buyer Corp",
	}
	li := &invoice.LineItem{
		ItemName:     "Widget",
		Quantity:     "2",
		TaxableValue: invoice.MustAmount("100"),
		IGSTAmount:   invoice.MustAmount("18"),
		IGSTRate:     invoice.MustAmount("18"),
		FinalAmount:  invoice.MustAmount("118"),
	}

	rec := invoice.Merge(h, li)
	assert.Equal(t, "INV-7", rec.InvoiceNumber)
	assert.Equal(t, "27ABCDE1234F1Z5", rec.GSTINSupplier)
	assert.Equal(t, "29FGHIJ5678K1Z2", rec.GSTINRecipient)
	assert.Equal(t, "118", rec.FinalAmount.String())

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "item_name")
	assert.NotContains(t, m, "quantity")
	assert.NotContains(t, m, "rate_per_item_after_discount")
	assert.NotContains(t, m, "receiver_name")
}
