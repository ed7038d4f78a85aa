// Package billing turns a cart, a fulfillment mode, and a restaurant's tax
// configuration into a fully itemized bill. Compute is a total function over
// its numeric domain: it never fails and holds no state, so it is safe to call
// concurrently and is re-invoked on every input change (cart edit, mode
// toggle, discount edit, tax-config load).
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Mode is how the order is served. Delivery is the only mode that attracts a
// delivery fee.
type Mode string

const (
	ModeDineIn   Mode = "DINE_IN"
	ModeTakeaway Mode = "TAKEAWAY"
	ModeDelivery Mode = "DELIVERY"
)

// ParseMode validates a fulfillment mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDineIn, ModeTakeaway, ModeDelivery:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid order type %q", s)
}

// TaxBase selects the amount the percentage surcharges are applied to.
//
// The storefront historically taxed the pre-discount subtotal while the POS
// taxed the post-discount taxable amount. Rather than guessing which caller
// was right, the base is an explicit per-restaurant setting. The two bases
// only diverge when a discount is present; storefront orders carry no
// discount, so TAXABLE reproduces both historical behaviors and is the
// default.
type TaxBase string

const (
	TaxBaseSubtotal TaxBase = "SUBTOTAL"
	TaxBaseTaxable  TaxBase = "TAXABLE"
)

// TaxConfig is a restaurant's tax settings. Zero value means no tax.
type TaxConfig struct {
	GSTPercent           decimal.Decimal
	ServiceChargePercent decimal.Decimal
	ApplyTax             bool
	Base                 TaxBase
}

// LineItem is a priced menu item with a quantity, owned transiently by a cart
// or frozen into an order at checkout.
type LineItem struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Input is everything Compute needs.
type Input struct {
	Items []LineItem
	Mode  Mode

	// DeliveryFee is the restaurant-configured or admin-overridden charge.
	// Applied only when Mode is ModeDelivery, ignored otherwise.
	DeliveryFee decimal.Decimal

	// Discount is an ad-hoc amount entered at order time (POS only; the
	// storefront always passes zero). Subtraction from the subtotal is
	// clamped at a floor of zero.
	Discount decimal.Decimal

	Tax TaxConfig
}

// Bill is the derived, fully itemized monetary summary. Amounts are carried at
// full precision; rounding to currency precision happens only at presentation
// and persistence time (see Format) so the three summed tax/fee terms do not
// compound rounding error.
type Bill struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	GSTRate        decimal.Decimal
	GSTAmount      decimal.Decimal
	ServiceRate    decimal.Decimal
	ServiceAmount  decimal.Decimal
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Compute produces the bill for the given input. The ordering of steps is
// fixed: subtotal, discount clamp, percentage surcharges, delivery fee, total.
func Compute(in Input) Bill {
	subtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity < 1 {
			continue
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	discount := in.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	base := taxable
	if in.Tax.Base == TaxBaseSubtotal {
		base = subtotal
	}

	gstRate := decimal.Zero
	gstAmount := decimal.Zero
	serviceRate := decimal.Zero
	serviceAmount := decimal.Zero
	if in.Tax.ApplyTax {
		if in.Tax.GSTPercent.IsPositive() {
			gstRate = in.Tax.GSTPercent
			gstAmount = base.Mul(gstRate).Div(oneHundred)
		}
		if in.Tax.ServiceChargePercent.IsPositive() {
			serviceRate = in.Tax.ServiceChargePercent
			serviceAmount = base.Mul(serviceRate).Div(oneHundred)
		}
	}

	deliveryFee := decimal.Zero
	if in.Mode == ModeDelivery && in.DeliveryFee.IsPositive() {
		deliveryFee = in.DeliveryFee
	}

	return Bill{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		GSTRate:        gstRate,
		GSTAmount:      gstAmount,
		ServiceRate:    serviceRate,
		ServiceAmount:  serviceAmount,
		DeliveryFee:    deliveryFee,
		Total:          taxable.Add(gstAmount).Add(serviceAmount).Add(deliveryFee),
	}
}

// Format renders a monetary amount at currency precision (two decimal places).
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Validation errors for calculator inputs. The calculator itself never fails;
// callers reject bad inputs at the boundary before invoking Compute.
var (
	ErrNegativePrice    = errors.New("unit price must not be negative")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativeDiscount = errors.New("discount must not be negative")
	ErrNegativeFee      = errors.New("delivery fee must not be negative")
)

// ValidateItems rejects line items with negative prices or quantities.
func ValidateItems(items []LineItem) error {
	for i, item := range items {
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item[%d]: %w", i, ErrNegativePrice)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("item[%d]: %w", i, ErrNegativeQuantity)
		}
	}
	return nil
}

// ValidateInput rejects any input the calculator would otherwise silently
// absorb: negative prices, quantities, discount, or delivery fee.
func ValidateInput(in Input) error {
	if err := ValidateItems(in.Items); err != nil {
		return err
	}
	if in.Discount.IsNegative() {
		return ErrNegativeDiscount
	}
	if in.DeliveryFee.IsNegative() {
		return ErrNegativeFee
	}
	return nil
}
