package filter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/ledger"
)

// DefaultCostRatio estimates a line's cost when the product has none recorded.
var DefaultCostRatio = decimal.RequireFromString("0.7")

// Engine evaluates queries against an order snapshot. It holds no state
// beyond its settings and is safe for concurrent use.
type Engine struct {
	loc       *time.Location
	costRatio decimal.Decimal
}

// NewEngine builds an engine comparing dates in loc and estimating unknown
// line costs as costRatio × unit price.
func NewEngine(loc *time.Location, costRatio decimal.Decimal) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if !costRatio.IsPositive() {
		costRatio = DefaultCostRatio
	}
	return &Engine{loc: loc, costRatio: costRatio}
}

// Location returns the zone used for calendar comparisons.
func (e *Engine) Location() *time.Location { return e.loc }

// Apply returns the review-eligible orders matching every facet of q. The
// input slice is not modified and keeps its relative order in the result.
func (e *Engine) Apply(orders []entity.Order, q Query) []entity.Order {
	preds := append([]Predicate{Eligible}, q.Predicates(e.loc)...)
	return Filter(orders, preds...)
}

// Filter keeps orders passing every predicate.
func Filter(orders []entity.Order, preds ...Predicate) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
outer:
	for i := range orders {
		for _, p := range preds {
			if !p(&orders[i]) {
				continue outer
			}
		}
		out = append(out, orders[i])
	}
	return out
}

// Summary holds the aggregates shown above the review list.
type Summary struct {
	Count             int
	Total             decimal.Decimal
	BestAccount       string
	BestAccountTotal  decimal.Decimal
	OverLimitAccounts int
	// NetProfitEstimate is an approximation for orientation only.
	NetProfitEstimate decimal.Decimal
}

// Summarize aggregates the filtered orders. Over-limit accounts are counted
// across the whole ledger passed in, not only accounts in orders.
func (e *Engine) Summarize(orders []entity.Order, accounts []entity.Account) Summary {
	s := Summary{
		Count:             len(orders),
		Total:             decimal.Zero,
		BestAccountTotal:  decimal.Zero,
		NetProfitEstimate: decimal.Zero,
		OverLimitAccounts: ledger.CountOverLimit(accounts),
	}

	byAccount := make(map[string]decimal.Decimal)
	var seen []string
	cost := decimal.Zero
	for i := range orders {
		o := &orders[i]
		s.Total = s.Total.Add(o.Pricing.Total)
		cost = cost.Add(e.lineCost(o.Items))

		name := o.Customer.Name
		if name == "" {
			continue
		}
		if _, ok := byAccount[name]; !ok {
			seen = append(seen, name)
		}
		byAccount[name] = byAccount[name].Add(o.Pricing.Total)
	}

	// Ties keep the account that appeared first.
	for _, name := range seen {
		if s.BestAccount == "" || byAccount[name].GreaterThan(s.BestAccountTotal) {
			s.BestAccount = name
			s.BestAccountTotal = byAccount[name]
		}
	}

	s.NetProfitEstimate = s.Total.Sub(cost)
	return s
}

func (e *Engine) lineCost(items []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		unit := it.UnitPrice.Mul(e.costRatio)
		if it.Cost != nil {
			unit = *it.Cost
		}
		total = total.Add(unit.Mul(it.Quantity))
	}
	return total
}
