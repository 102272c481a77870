package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtotalIsOrderIndependent(t *testing.T) {
	items := []LineItem{
		{Qty: 2, UnitRate: 500},
		{Qty: 1, UnitRate: 1000},
		{Qty: 3, UnitRate: 0.25},
	}
	reversed := []LineItem{items[2], items[1], items[0]}

	assert.Equal(t, Subtotal(items), Subtotal(reversed))
	assert.Equal(t, 2000.75, Subtotal(items))
	assert.Equal(t, 0.0, Subtotal(nil))
}

func TestGrandTotalIdentity(t *testing.T) {
	items := []LineItem{{Qty: 4, UnitRate: 25}}
	cases := []struct {
		vat, wht Amount
	}{
		{0, 0},
		{15, 5},
		{-10, 0},
		{0, -20},
		{-3.5, 7.25},
	}
	for _, tc := range cases {
		got := GrandTotal(items, tc.vat, tc.wht)
		assert.Equal(t, Subtotal(items)+float64(tc.vat)-float64(tc.wht), got)
	}
}

func TestGrandTotalTextCoercesAdjustments(t *testing.T) {
	items := []LineItem{{Qty: 1, UnitRate: 100}}
	assert.Equal(t, 100.0, GrandTotalText(items, "", "abc"))
	assert.Equal(t, 110.0, GrandTotalText(items, "10", ""))
	assert.Equal(t, 105.0, GrandTotalText(items, "10kg", "5"))
}

func TestInvoiceScenarioTotals(t *testing.T) {
	d := NewDraft()
	d.Items = []LineItem{
		{Description: "Consulting", Unit: "hr", Qty: 2, UnitRate: 500},
		{Description: "Setup", Unit: "lot", Qty: 1, UnitRate: 1000},
	}
	d.VAT = 150
	d.WHT = 50

	assert.Equal(t, 2000.0, d.Subtotal())
	assert.Equal(t, 2100.0, d.GrandTotal())

	p := d.Payload()
	assert.Equal(t, Amount(2000), p.Subtotal)
	assert.Equal(t, Amount(2100), p.Total)
	assert.Len(t, p.Items, 2)
}

func TestLineAmountHasNoRounding(t *testing.T) {
	assert.InDelta(t, 0.3, LineAmount(LineItem{Qty: 3, UnitRate: 0.1}), 1e-12)
}
