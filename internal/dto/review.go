package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/filter"
	"github.com/Additional-Code/creditdesk/internal/ledger"
	"github.com/Additional-Code/creditdesk/internal/review"
	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

const monthLayout = "2006-01"

// ListOrdersQuery carries the facet selection of the review list. At most
// one of Date, DateFrom/DateTo and Month may be set.
type ListOrdersQuery struct {
	Status        string `query:"status" json:"status,omitempty"`
	PaymentMethod string `query:"payment_method" json:"paymentMethod,omitempty"`
	Salesman      string `query:"salesman" json:"salesman,omitempty"`
	Account       string `query:"account" json:"account,omitempty"`
	Date          string `query:"date" json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateFrom      string `query:"date_from" json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo        string `query:"date_to" json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Month         string `query:"month" json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
}

// ToQuery converts the facet selection into an immutable filter query.
func (q ListOrdersQuery) ToQuery() (filter.Query, error) {
	out := filter.New()

	if s := strings.TrimSpace(q.Status); s != "" {
		status, err := review.ParseStatus(s)
		if err != nil {
			return out, errorbank.Validation(err.Error(), errorbank.WithDetail("status", s))
		}
		out = out.WithStatus(status)
	}
	if m := strings.TrimSpace(q.PaymentMethod); m != "" {
		out = out.WithPaymentMethod(m)
	}
	if s := strings.TrimSpace(q.Salesman); s != "" {
		out = out.WithSalesman(filter.ParseSalesman(s))
	}
	if a := q.Account; strings.TrimSpace(a) != "" {
		out = out.WithAccount(a)
	}

	date, err := q.dateFilter()
	if err != nil {
		return out, err
	}
	return out.WithDate(date), nil
}

func (q ListOrdersQuery) dateFilter() (filter.DateFilter, error) {
	set := 0
	for _, v := range []string{q.Date, q.DateFrom + q.DateTo, q.Month} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set > 1 {
		return filter.NoDate(), errorbank.Validation("date, date range and month filters are mutually exclusive")
	}

	switch {
	case q.Date != "":
		d, err := filter.ParseDate(q.Date)
		if err != nil {
			return filter.NoDate(), errorbank.Validation("invalid date", errorbank.WithDetail("date", q.Date))
		}
		return filter.On(d), nil
	case q.DateFrom != "" || q.DateTo != "":
		if q.DateFrom == "" || q.DateTo == "" {
			return filter.NoDate(), errorbank.Validation("date range requires both date_from and date_to")
		}
		from, err := filter.ParseDate(q.DateFrom)
		if err != nil {
			return filter.NoDate(), errorbank.Validation("invalid date_from", errorbank.WithDetail("date_from", q.DateFrom))
		}
		to, err := filter.ParseDate(q.DateTo)
		if err != nil {
			return filter.NoDate(), errorbank.Validation("invalid date_to", errorbank.WithDetail("date_to", q.DateTo))
		}
		return filter.Between(from, to), nil
	case q.Month != "":
		t, err := time.Parse(monthLayout, q.Month)
		if err != nil {
			return filter.NoDate(), errorbank.Validation("invalid month", errorbank.WithDetail("month", q.Month))
		}
		return filter.InMonth(t.Year(), t.Month()), nil
	default:
		return filter.NoDate(), nil
	}
}

// TransitionRequest asks for a review status change.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// AttachInvoiceRequest sets or clears the invoice document reference.
type AttachInvoiceRequest struct {
	InvoicePDF string `json:"invoicePdf" validate:"max=2048"`
}

// PaymentResponse is the payment sub-record with its display label.
type PaymentResponse struct {
	Method      string     `json:"method"`
	MethodLabel string     `json:"methodLabel"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

// OrderResponse is the order as shown to accountants.
type OrderResponse struct {
	ID           string             `json:"id"`
	ReviewStatus string             `json:"reviewStatus"`
	Status       string             `json:"status,omitempty"`
	Payment      PaymentResponse    `json:"payment"`
	Pricing      entity.Pricing     `json:"pricing"`
	Customer     entity.CustomerRef `json:"customer"`
	CreatedBy    entity.SalesmanRef `json:"createdBy"`
	Items        []entity.LineItem  `json:"items"`
	InvoicePDF   string             `json:"invoicePdf,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty"`
}

// NewOrderResponse maps an order for output.
func NewOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		ReviewStatus: string(o.EffectiveReviewStatus()),
		Status:       o.Status,
		Payment: PaymentResponse{
			Method:      string(o.Payment.Method),
			MethodLabel: filter.PaymentLabel(string(o.Payment.Method)),
			Status:      string(o.Payment.Status),
			PaidAt:      o.Payment.PaidAt,
		},
		Pricing:    o.Pricing,
		Customer:   o.Customer,
		CreatedBy:  o.CreatedBy,
		Items:      o.Items,
		InvoicePDF: o.InvoicePDF,
		CreatedAt:  o.CreatedAt,
	}
	if resp.Items == nil {
		resp.Items = []entity.LineItem{}
	}
	if !o.UpdatedAt.IsZero() {
		updated := o.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// SummaryResponse carries the review list aggregates.
type SummaryResponse struct {
	Count             int             `json:"count"`
	Total             decimal.Decimal `json:"total"`
	BestAccount       string          `json:"bestAccount,omitempty"`
	BestAccountTotal  decimal.Decimal `json:"bestAccountTotal"`
	OverLimitAccounts int             `json:"overLimitAccounts"`
	NetProfitEstimate decimal.Decimal `json:"netProfitEstimate"`
}

// NewSummaryResponse maps filter aggregates for output.
func NewSummaryResponse(s filter.Summary) SummaryResponse {
	return SummaryResponse{
		Count:             s.Count,
		Total:             s.Total,
		BestAccount:       s.BestAccount,
		BestAccountTotal:  s.BestAccountTotal,
		OverLimitAccounts: s.OverLimitAccounts,
		NetProfitEstimate: s.NetProfitEstimate,
	}
}

// ReviewListResponse is the filtered order list.
type ReviewListResponse struct {
	Orders  []OrderResponse `json:"orders"`
	Summary SummaryResponse `json:"summary"`
}

// AccountResponse is an account with its derived balance.
type AccountResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	CompanyID        string          `json:"companyId,omitempty"`
	CreditLimit      decimal.Decimal `json:"creditLimit"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	OverLimit        bool            `json:"overLimit"`
}

// TransitionResponse reports a review status change.
type TransitionResponse struct {
	Order          OrderResponse `json:"order"`
	PreviousStatus string        `json:"previousStatus"`
}

// SettlementResponse reports a settled credit order.
type SettlementResponse struct {
	Order   OrderResponse   `json:"order"`
	Account AccountResponse `json:"account"`
}

// NewAccountResponse maps an account and derives its available balance.
func NewAccountResponse(a entity.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Name:             a.Name,
		CompanyID:        a.CompanyID,
		CreditLimit:      a.CreditLimit,
		CurrentBalance:   a.CurrentBalance,
		AvailableBalance: ledger.Available(a),
		OverLimit:        ledger.IsOverLimit(a),
	}
}
