package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// ReviewStatus is the accountant-facing workflow state of an order.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "PENDING_REVIEW"
	ReviewUnderReview ReviewStatus = "UNDER_REVIEW"
	ReviewApproved    ReviewStatus = "APPROVED"
	ReviewRejected    ReviewStatus = "REJECTED"
	ReviewCancelled   ReviewStatus = "CANCELLED"
)

// ReviewStatuses lists every review status in workflow order.
var ReviewStatuses = []ReviewStatus{
	ReviewPending,
	ReviewUnderReview,
	ReviewApproved,
	ReviewRejected,
	ReviewCancelled,
}

// PaymentMethod is the stored payment method code.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentVisa    PaymentMethod = "visa"
	PaymentBenefit PaymentMethod = "benefit"
	PaymentFloos   PaymentMethod = "floos"
	PaymentCredit  PaymentMethod = "credit"
)

// PaymentStatus only ever moves from pending to paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// FulfillmentPending is the upstream order status that makes an order
// reviewable even before a review status was assigned.
const FulfillmentPending = "pending"

// Payment is the payment sub-record of an order.
type Payment struct {
	Method PaymentMethod `bun:"method" json:"method"`
	Status PaymentStatus `bun:"status" json:"status"`
	PaidAt *time.Time    `bun:"paid_at,nullzero" json:"paidAt,omitempty"`
}

// Pricing holds order amounts in the ledger currency. VAT is an input here.
type Pricing struct {
	Subtotal     decimal.Decimal `bun:"subtotal,type:numeric(14,3)" json:"subtotal"`
	DeliveryCost decimal.Decimal `bun:"delivery_cost,type:numeric(14,3)" json:"deliveryCost"`
	TotalVAT     decimal.Decimal `bun:"total_vat,type:numeric(14,3)" json:"totalVat"`
	Total        decimal.Decimal `bun:"total,type:numeric(14,3)" json:"total"`
}

// CustomerRef identifies the billed account. AccountID is the stable key;
// Name and CompanyID are kept for orders created before it was backfilled.
type CustomerRef struct {
	AccountID string `bun:"account_id,nullzero" json:"accountId,omitempty"`
	Name      string `bun:"name" json:"name"`
	CompanyID string `bun:"company_id,nullzero" json:"companyId,omitempty"`
}

// SalesmanRef identifies the user that created the order.
type SalesmanRef struct {
	UserID string `bun:"user_id,nullzero" json:"userId,omitempty"`
	Name   string `bun:"name" json:"name"`
}

// LineItem is read-only to the review engine.
type LineItem struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name,omitempty"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	VATRate   decimal.Decimal  `json:"vatRate"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
}

// Order represents a submitted order as seen by the review desk.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           string       `bun:"id,pk" json:"id"`
	ReviewStatus ReviewStatus `bun:"review_status,nullzero" json:"reviewStatus,omitempty"`
	Status       string       `bun:"status" json:"status,omitempty"`
	Payment      Payment      `bun:"embed:payment_" json:"payment"`
	Pricing      Pricing      `bun:"embed:pricing_" json:"pricing"`
	Customer     CustomerRef  `bun:"embed:customer_" json:"customer"`
	CreatedBy    SalesmanRef  `bun:"embed:created_by_" json:"createdBy"`
	Items        []LineItem   `bun:"items,type:jsonb" json:"items"`
	InvoicePDF   string       `bun:"invoice_pdf,nullzero" json:"invoicePdf,omitempty"`
	CreatedAt    time.Time    `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt    time.Time    `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// EffectiveReviewStatus defaults an unset review status to PENDING_REVIEW.
func (o *Order) EffectiveReviewStatus() ReviewStatus {
	if o.ReviewStatus == "" {
		return ReviewPending
	}
	return o.ReviewStatus
}

// IsCredit reports whether the order is financed on the customer's credit line.
func (o *Order) IsCredit() bool {
	return o.Payment.Method == PaymentCredit
}

// IsPaid reports whether the order payment has been settled.
func (o *Order) IsPaid() bool {
	return o.Payment.Status == PaymentPaid
}

// Clone returns a deep copy so callers can mutate without touching shared snapshots.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Payment.PaidAt != nil {
		paidAt := *o.Payment.PaidAt
		cp.Payment.PaidAt = &paidAt
	}
	if o.Items != nil {
		cp.Items = make([]LineItem, len(o.Items))
		copy(cp.Items, o.Items)
	}
	return &cp
}
