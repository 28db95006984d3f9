// Package filter selects orders for review. A Query is an immutable set of
// facet selections; each facet becomes an independent predicate and the
// predicates are ANDed, so the order they run in never changes the result.
package filter

import (
	"strings"
	"time"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

// SalesmanPrefix tags a salesman facet value that carries a stable user id.
const SalesmanPrefix = "user:"

// Predicate reports whether an order passes one facet.
type Predicate func(*entity.Order) bool

// Salesman selects orders by their originating user. ID is preferred; Name
// only matches orders that carry no user id of their own.
type Salesman struct {
	ID   string
	Name string
}

// ParseSalesman reads "user:<id>" as a stable id and anything else as a
// display name.
func ParseSalesman(raw string) Salesman {
	raw = strings.TrimSpace(raw)
	if id, ok := strings.CutPrefix(raw, SalesmanPrefix); ok {
		return Salesman{ID: strings.TrimSpace(id)}
	}
	return Salesman{Name: raw}
}

// Tag renders the facet the way ParseSalesman reads it.
func (s Salesman) Tag() string {
	if s.ID != "" {
		return SalesmanPrefix + s.ID
	}
	return s.Name
}

func (s Salesman) matches(ref entity.SalesmanRef) bool {
	if s.ID != "" && ref.UserID != "" {
		return s.ID == ref.UserID
	}
	if s.Name == "" {
		return false
	}
	return strings.TrimSpace(ref.Name) == s.Name
}

// Query is the accountant's facet selection. The zero value selects every
// review-eligible order. Use the With methods to derive new queries.
type Query struct {
	status        *entity.ReviewStatus
	paymentMethod string
	salesman      *Salesman
	account       string
	date          DateFilter
}

// New returns an empty query.
func New() Query { return Query{} }

// WithStatus restricts to one review status.
func (q Query) WithStatus(s entity.ReviewStatus) Query {
	q.status = &s
	return q
}

// WithPaymentMethod restricts to a payment method given as label or code.
func (q Query) WithPaymentMethod(method string) Query {
	q.paymentMethod = PaymentLabel(method)
	return q
}

// WithSalesman restricts to orders created by one salesman.
func (q Query) WithSalesman(s Salesman) Query {
	q.salesman = &s
	return q
}

// WithAccount restricts to orders billed to the account with this display name.
func (q Query) WithAccount(name string) Query {
	q.account = name
	return q
}

// WithDate sets the date facet.
func (q Query) WithDate(d DateFilter) Query {
	q.date = d
	return q
}

// Status returns the selected status, if any.
func (q Query) Status() (entity.ReviewStatus, bool) {
	if q.status == nil {
		return "", false
	}
	return *q.status, true
}

// PaymentMethod returns the selected payment label or "".
func (q Query) PaymentMethod() string { return q.paymentMethod }

// Salesman returns the selected salesman, if any.
func (q Query) Salesman() (Salesman, bool) {
	if q.salesman == nil {
		return Salesman{}, false
	}
	return *q.salesman, true
}

// Account returns the selected account name or "".
func (q Query) Account() string { return q.account }

// Date returns the date facet.
func (q Query) Date() DateFilter { return q.date }

// Predicates converts the active facets into predicates evaluated in loc.
func (q Query) Predicates(loc *time.Location) []Predicate {
	if loc == nil {
		loc = time.Local
	}
	var preds []Predicate
	if q.status != nil {
		preds = append(preds, StatusIs(*q.status))
	}
	if q.paymentMethod != "" {
		preds = append(preds, PaymentMethodIs(q.paymentMethod))
	}
	if q.salesman != nil {
		preds = append(preds, CreatedBy(*q.salesman))
	}
	if q.account != "" {
		preds = append(preds, BilledTo(q.account))
	}
	if p := q.date.predicate(loc); p != nil {
		preds = append(preds, p)
	}
	return preds
}

// Eligible keeps orders that have a review status or are still pending upstream.
func Eligible(o *entity.Order) bool {
	return o.ReviewStatus != "" || o.Status == entity.FulfillmentPending
}

// StatusIs matches the effective review status.
func StatusIs(s entity.ReviewStatus) Predicate {
	return func(o *entity.Order) bool {
		return o.EffectiveReviewStatus() == s
	}
}

// PaymentMethodIs matches by display label so legacy codes still compare.
func PaymentMethodIs(method string) Predicate {
	label := PaymentLabel(method)
	return func(o *entity.Order) bool {
		return PaymentLabel(string(o.Payment.Method)) == label
	}
}

// CreatedBy matches the originating salesman.
func CreatedBy(s Salesman) Predicate {
	return func(o *entity.Order) bool {
		return s.matches(o.CreatedBy)
	}
}

// BilledTo matches the exact display name of the billed company.
func BilledTo(name string) Predicate {
	return func(o *entity.Order) bool {
		return o.Customer.Name == name
	}
}
