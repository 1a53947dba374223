// Package pricing turns order lines, a discount and the restaurant's
// percentage rates into a subtotal/tax/service-charge/total breakdown.
//
// Calculate is pure: no storage, no clock, no globals.  Callers pass the
// settings snapshot they read so a concurrent settings edit cannot change
// the outcome half way through.  Arithmetic is decimal throughout and
// Calculate rounds nothing; Breakdown.Round fits a result to the scale it is
// stored at.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

var (
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("unit price must not be negative")
	ErrNegativeRate     = errors.New("percentage must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Line is the pricing view of an order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Rates is the settings snapshot used for one pricing run.
type Rates struct {
	TaxPercentage           decimal.Decimal
	ServiceChargePercentage decimal.Decimal
}

// RatesFrom copies the percentages out of a settings row.
func RatesFrom(s model.Settings) Rates {
	return Rates{
		TaxPercentage:           s.TaxPercentage,
		ServiceChargePercentage: s.ServiceChargePercentage,
	}
}

// Input bundles everything Calculate needs.
type Input struct {
	Lines    []Line
	Discount decimal.Decimal
	Rates    Rates
}

// Breakdown is the priced result.  Discount is the clamped value that was
// actually applied.
type Breakdown struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	AfterDiscount decimal.Decimal
	TaxAmount     decimal.Decimal
	ServiceCharge decimal.Decimal
	TotalAmount   decimal.Decimal
}

// Calculate prices a set of lines.  Negative quantities, prices or rates are
// rejected; a discount outside [0, subtotal] is clamped into that range.
func Calculate(in Input) (Breakdown, error) {
	if err := validateRates(in.Rates); err != nil {
		return Breakdown{}, err
	}
	subtotal := decimal.Zero
	for i, l := range in.Lines {
		if l.Quantity < 0 {
			return Breakdown{}, fmt.Errorf("line %d: %w", i+1, ErrNegativeQuantity)
		}
		if l.UnitPrice.IsNegative() {
			return Breakdown{}, fmt.Errorf("line %d: %w", i+1, ErrNegativePrice)
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return fromSubtotal(subtotal, in.Discount, in.Rates), nil
}

// Reprice re-derives the breakdown from an already stored subtotal.  It is
// used when only the discount of an order changes.
func Reprice(subtotal, discount decimal.Decimal, rates Rates) (Breakdown, error) {
	if err := validateRates(rates); err != nil {
		return Breakdown{}, err
	}
	if subtotal.IsNegative() {
		return Breakdown{}, ErrNegativePrice
	}
	return fromSubtotal(subtotal, discount, rates), nil
}

// ClampDiscount returns discount limited to [0, subtotal].
func ClampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func fromSubtotal(subtotal, discount decimal.Decimal, rates Rates) Breakdown {
	applied := ClampDiscount(discount, subtotal)
	after := subtotal.Sub(applied)
	tax := after.Mul(rates.TaxPercentage).Div(hundred)
	service := after.Mul(rates.ServiceChargePercentage).Div(hundred)
	return Breakdown{
		Subtotal:      subtotal,
		Discount:      applied,
		AfterDiscount: after,
		TaxAmount:     tax,
		ServiceCharge: service,
		TotalAmount:   after.Add(tax).Add(service),
	}
}

// Round rounds every part of b to places decimals and derives the total from
// the rounded parts, so a stored breakdown always adds up exactly.
func (b Breakdown) Round(places int32) Breakdown {
	r := Breakdown{
		Subtotal:      b.Subtotal.Round(places),
		Discount:      b.Discount.Round(places),
		TaxAmount:     b.TaxAmount.Round(places),
		ServiceCharge: b.ServiceCharge.Round(places),
	}
	r.AfterDiscount = r.Subtotal.Sub(r.Discount)
	r.TotalAmount = r.AfterDiscount.Add(r.TaxAmount).Add(r.ServiceCharge)
	return r
}

func validateRates(r Rates) error {
	if r.TaxPercentage.IsNegative() || r.ServiceChargePercentage.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}
