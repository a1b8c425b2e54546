// Package invoicing computes invoice line totals and summaries. All money is
// rounded half-up to two decimal places.
package invoicing

import (
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Round2 rounds x half away from zero at two decimals. Rounding works on the
// shortest decimal representation of x, so 1.005 becomes 1.01 rather than
// falling to 1.00 through binary error.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

func LineTotal(quantity, price float64) float64 {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price)).Round(2).InexactFloat64()
}

type Totals struct {
	Subtotal             float64 `json:"subtotal"`
	TaxAmount            float64 `json:"taxAmount"`
	DiscountAmount       float64 `json:"discountAmount"`
	DeliveryChargeAmount float64 `json:"deliveryChargeAmount"`
	Total                float64 `json:"total"`
}

// Recompute derives the invoice summary. The subtotal sums the already
// rounded line totals so it always matches the lines shown above it.
func Recompute(items []models.InvoiceItem, taxPercent, discount, deliveryCharge float64) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(decimal.NewFromFloat(it.Total))
	}
	sub = sub.Round(2)
	tax := sub.Mul(decimal.NewFromFloat(taxPercent)).Div(decimal.NewFromInt(100)).Round(2)
	disc := decimal.NewFromFloat(discount).Round(2)
	del := decimal.NewFromFloat(deliveryCharge).Round(2)
	total := sub.Add(tax).Sub(disc).Add(del).Round(2)
	return Totals{
		Subtotal:             sub.InexactFloat64(),
		TaxAmount:            tax.InexactFloat64(),
		DiscountAmount:       disc.InexactFloat64(),
		DeliveryChargeAmount: del.InexactFloat64(),
		Total:                total.InexactFloat64(),
	}
}

// RecomputeInvoice refreshes every line total and the summary of inv.
func RecomputeInvoice(inv *models.Invoice) {
	for i := range inv.Items {
		inv.Items[i].Total = LineTotal(inv.Items[i].Quantity, inv.Items[i].Price)
	}
	t := Recompute(inv.Items, inv.TaxPercent, inv.Discount, inv.DeliveryCharge)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.DiscountAmount = t.DiscountAmount
	inv.DeliveryChargeAmount = t.DeliveryChargeAmount
	inv.Total = t.Total
}

// FromOrder drafts invoice lines from an order's cart.
func FromOrder(o models.Order) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(o.CartItems))
	for _, ci := range o.CartItems {
		items = append(items, models.InvoiceItem{
			Category:  ci.Category,
			Name:      ci.Title,
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     ci.Price,
			Total:     LineTotal(ci.Quantity, ci.Price),
		})
	}
	return items
}

// CouponDiscount is the discount c grants on subtotal, rounded and capped at
// the subtotal. It is zero when subtotal is under the coupon minimum.
func CouponDiscount(c models.Coupon, subtotal float64) float64 {
	if subtotal < c.MinSubtotal {
		return 0
	}
	sub := decimal.NewFromFloat(subtotal).Round(2)
	d := sub.Mul(decimal.NewFromFloat(c.Percent)).Div(decimal.NewFromInt(100)).
		Add(decimal.NewFromFloat(c.Flat)).Round(2)
	if d.GreaterThan(sub) {
		d = sub
	}
	return d.InexactFloat64()
}
