// Package store defines the request/response contract the review engine
// uses to read and patch orders and accounts. It does not own persistence.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

var (
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAccountNotFound is returned when no account matches the order.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAlreadySettled is returned when the store finds the order already paid.
	ErrAlreadySettled = errors.New("order already paid")
	// ErrValidation is returned when the store rejects a write.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork wraps transport failures talking to a remote store.
	ErrNetwork = errors.New("order store unreachable")
)

// OrderPatch is a partial order update; nil fields are left untouched.
type OrderPatch struct {
	ReviewStatus *entity.ReviewStatus `json:"reviewStatus,omitempty"`
	Payment      *entity.Payment      `json:"payment,omitempty"`
	InvoicePDF   *string              `json:"invoicePdf,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return p.ReviewStatus == nil && p.Payment == nil && p.InvoicePDF == nil
}

// Settlement asks the store to mark a credit order paid and credit its
// account back in one atomic request.
type Settlement struct {
	OrderID   string          `json:"orderId"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
	// Strict asks the store to refuse a credit-back that leaves a negative balance.
	Strict bool `json:"strict,omitempty"`
}

// SettlementReceipt reports the state after a successful settlement.
type SettlementReceipt struct {
	Order   entity.Order   `json:"order"`
	Account entity.Account `json:"account"`
}

// Store is implemented by the database repository and the remote client.
type Store interface {
	// ListOrders returns orders, optionally restricted to one review status.
	ListOrders(ctx context.Context, status *entity.ReviewStatus) ([]entity.Order, error)
	GetOrder(ctx context.Context, id string) (*entity.Order, error)
	PatchOrder(ctx context.Context, id string, patch OrderPatch) (*entity.Order, error)
	Settle(ctx context.Context, s Settlement) (*SettlementReceipt, error)
	ListAccounts(ctx context.Context) ([]entity.Account, error)
	ResolveAccount(ctx context.Context, order *entity.Order) (*entity.Account, error)
}

// ValidationError carries the store's own rejection message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NetworkError carries the transport failure message verbatim.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }

// Unwrap exposes both ErrNetwork and the transport error.
func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// RejectedError carries a remote store's own message for one of the
// sentinel kinds above.
type RejectedError struct {
	Kind    error
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return e.Kind }
