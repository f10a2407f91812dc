// Package billing owns invoice generation and the notification side effects
// of subscription lifecycle events.
package billing

import "fmt"

// PlanPrice is the per-period charge for a plan.
type PlanPrice struct {
	AmountCents int64
	Currency    string
}

// PlanCatalog resolves plan codes to prices. The pricing catalog itself is
// managed outside the billing core; this is its read-only boundary.
type PlanCatalog interface {
	PriceFor(planCode string) (PlanPrice, error)
}

// StaticPlanCatalog is a fixed in-memory catalog, loaded from configuration
// at startup.
type StaticPlanCatalog struct {
	prices map[string]PlanPrice
}

func NewStaticPlanCatalog(prices map[string]PlanPrice) *StaticPlanCatalog {
	if prices == nil {
		prices = make(map[string]PlanPrice)
	}
	return &StaticPlanCatalog{prices: prices}
}

// DefaultPlanCatalog returns the built-in plans used when no catalog is
// configured.
func DefaultPlanCatalog() *StaticPlanCatalog {
	return NewStaticPlanCatalog(map[string]PlanPrice{
		"starter":  {AmountCents: 900, Currency: "USD"},
		"growth":   {AmountCents: 2900, Currency: "USD"},
		"business": {AmountCents: 9900, Currency: "USD"},
	})
}

func (c *StaticPlanCatalog) PriceFor(planCode string) (PlanPrice, error) {
	price, ok := c.prices[planCode]
	if !ok {
		return PlanPrice{}, fmt.Errorf("unknown plan code: %s", planCode)
	}
	return price, nil
}
