package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// TaxCalculator resolves the tax amount for a cart total from the read-only
// tax rule table.
type TaxCalculator struct {
	storage Storage
	region  string
}

// NewTaxCalculator creates a tax calculator for the configured region.
func NewTaxCalculator(storage Storage, region string) *TaxCalculator {
	return &TaxCalculator{storage: storage, region: region}
}

// TaxFor returns the tax on a cart total, rounded to 2 decimals. A region
// with no rule pays no tax.
func (t *TaxCalculator) TaxFor(ctx context.Context, cartTotal decimal.Decimal) (decimal.Decimal, error) {
	rule, err := t.storage.GetTaxRule(ctx, t.region)
	if err != nil {
		return decimal.Zero, err
	}
	if rule == nil {
		return decimal.Zero, nil
	}
	return cartTotal.Mul(rule.Rate).Round(2), nil
}
