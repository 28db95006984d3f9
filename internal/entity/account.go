package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Account is a customer's revolving credit line.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID             string          `bun:"id,pk" json:"id"`
	Name           string          `bun:"name" json:"name"`
	CompanyID      string          `bun:"company_id,nullzero" json:"companyId,omitempty"`
	CreditLimit    decimal.Decimal `bun:"credit_limit,type:numeric(14,3)" json:"creditLimit"`
	CurrentBalance decimal.Decimal `bun:"current_balance,type:numeric(14,3)" json:"currentBalance"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}
