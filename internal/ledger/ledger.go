// Package ledger holds the credit-line arithmetic for customer accounts:
// available balance, over-limit detection, settlement credit-back and the
// mapping of an order's billed identity onto an account.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

var (
	// ErrAccountNotFound is returned when no account matches an order.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAmbiguousAccount is returned when a legacy name match hits several accounts.
	ErrAmbiguousAccount = errors.New("account name matches multiple accounts")
	// ErrNegativeBalance is returned in strict mode when a credit-back would
	// drive the outstanding balance below zero.
	ErrNegativeBalance = errors.New("account balance would become negative")
	// ErrInvalidAmount rejects negative settlement amounts.
	ErrInvalidAmount = errors.New("settlement amount must not be negative")
)

// Available is creditLimit - currentBalance. It may be negative.
func Available(a entity.Account) decimal.Decimal {
	return a.CreditLimit.Sub(a.CurrentBalance)
}

// IsOverLimit reports whether the account owes more than its credit limit.
func IsOverLimit(a entity.Account) bool {
	return a.CurrentBalance.GreaterThan(a.CreditLimit)
}

// CountOverLimit counts accounts currently over their credit limit.
func CountOverLimit(accounts []entity.Account) int {
	n := 0
	for _, a := range accounts {
		if IsOverLimit(a) {
			n++
		}
	}
	return n
}

// Policy controls how strictly the ledger guards its balances.
type Policy struct {
	// Strict turns a negative resulting balance into ErrNegativeBalance.
	// Left off, inconsistent balances are surfaced but never corrected.
	Strict bool
}

// Credit restores amount to the account's available credit by lowering its
// outstanding balance. The returned account is a copy; a is untouched.
func (p Policy) Credit(a entity.Account, amount decimal.Decimal) (entity.Account, error) {
	if amount.IsNegative() {
		return a, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	next := a
	next.CurrentBalance = a.CurrentBalance.Sub(amount)
	if p.Strict && next.CurrentBalance.IsNegative() {
		return a, fmt.Errorf("%w: %s would owe %s", ErrNegativeBalance, a.Name, next.CurrentBalance)
	}
	return next, nil
}

// Resolve finds the account billed by order. The stable account id wins;
// orders without one fall back to display-name equality and then to the
// company identifier.
func Resolve(order *entity.Order, accounts []entity.Account) (*entity.Account, error) {
	if order == nil {
		return nil, ErrAccountNotFound
	}
	ref := order.Customer

	if id := strings.TrimSpace(ref.AccountID); id != "" {
		for i := range accounts {
			if accounts[i].ID == id {
				return &accounts[i], nil
			}
		}
	}

	ambiguous := false
	if name := strings.TrimSpace(ref.Name); name != "" {
		var match *entity.Account
		for i := range accounts {
			if strings.TrimSpace(accounts[i].Name) != name {
				continue
			}
			if match != nil {
				ambiguous = true
				break
			}
			match = &accounts[i]
		}
		if match != nil && !ambiguous {
			return match, nil
		}
	}

	// An ambiguous name counts as a failed name match.
	if company := strings.TrimSpace(ref.CompanyID); company != "" {
		for i := range accounts {
			if accounts[i].CompanyID == company {
				return &accounts[i], nil
			}
		}
	}

	if ambiguous {
		return nil, ErrAmbiguousAccount
	}

	return nil, ErrAccountNotFound
}
