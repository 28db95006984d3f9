package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Writer is the subset of the database store the seeder needs.
type Writer interface {
	CreateAccount(ctx context.Context, account *entity.Account) error
	CreateOrder(ctx context.Context, order *entity.Order) error
}

// Seeder loads a small demo ledger for local setups. Ids are derived from
// fixed names, so running it twice leaves the data untouched.
type Seeder struct {
	store  Writer
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder on top of the database store.
func New(store Writer, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, logger: logger.Named("seeder"), now: time.Now}
}

func stableID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("creditdesk:"+kind+":"+name)).String()
}

// Accounts returns the demo accounts.
func (s *Seeder) Accounts() []entity.Account {
	return []entity.Account{
		{ID: stableID("account", "acme"), Name: "Acme Trading", CompanyID: "CR-1001",
			CreditLimit: decimal.NewFromInt(1000), CurrentBalance: decimal.NewFromInt(450)},
		{ID: stableID("account", "gulf"), Name: "Gulf Supplies", CompanyID: "CR-1002",
			CreditLimit: decimal.NewFromInt(500), CurrentBalance: decimal.NewFromInt(650)},
		{ID: stableID("account", "pearl"), Name: "Pearl Catering",
			CreditLimit: decimal.NewFromInt(2000), CurrentBalance: decimal.Zero},
	}
}

// Orders returns the demo orders for the given accounts.
func (s *Seeder) Orders(accounts []entity.Account) []entity.Order {
	today := s.now().UTC().Truncate(24 * time.Hour)
	order := func(n int, acc entity.Account, method entity.PaymentMethod, review entity.ReviewStatus, total int64, salesman string, daysAgo int) entity.Order {
		amount := decimal.NewFromInt(total)
		vat := amount.Mul(decimal.RequireFromString("0.1")).Div(decimal.RequireFromString("1.1")).Round(3)
		return entity.Order{
			ID:           stableID("order", fmt.Sprintf("%04d", n)),
			ReviewStatus: review,
			Status:       entity.FulfillmentPending,
			Payment:      entity.Payment{Method: method, Status: entity.PaymentPending},
			Pricing: entity.Pricing{
				Subtotal: amount.Sub(vat),
				TotalVAT: vat,
				Total:    amount,
			},
			Customer:  entity.CustomerRef{AccountID: acc.ID, Name: acc.Name, CompanyID: acc.CompanyID},
			CreatedBy: entity.SalesmanRef{UserID: stableID("user", salesman), Name: salesman},
			Items: []entity.LineItem{{
				ProductID: stableID("product", "crate"),
				Name:      "Mixed crate",
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: amount.Sub(vat),
				VATRate:   decimal.RequireFromString("0.1"),
			}},
			CreatedAt: today.Add(-time.Duration(daysAgo) * 24 * time.Hour).Add(10 * time.Hour),
		}
	}

	acme, gulf, pearl := accounts[0], accounts[1], accounts[2]
	return []entity.Order{
		order(1, acme, entity.PaymentCredit, entity.ReviewPending, 200, "Sara", 0),
		order(2, acme, entity.PaymentCredit, entity.ReviewApproved, 250, "Sara", 1),
		order(3, gulf, entity.PaymentCredit, entity.ReviewUnderReview, 650, "Omar", 3),
		order(4, pearl, entity.PaymentCash, entity.ReviewPending, 120, "Omar", 0),
		order(5, pearl, entity.PaymentVisa, entity.ReviewRejected, 90, "Sara", 40),
		order(6, acme, entity.PaymentBenefit, "", 75, "Omar", 2),
	}
}

// Run inserts the demo accounts and orders.
func (s *Seeder) Run(ctx context.Context) error {
	accounts := s.Accounts()
	for i := range accounts {
		if err := s.store.CreateAccount(ctx, &accounts[i]); err != nil {
			return fmt.Errorf("seed account %s: %w", accounts[i].Name, err)
		}
	}

	orders := s.Orders(accounts)
	for i := range orders {
		if err := s.store.CreateOrder(ctx, &orders[i]); err != nil {
			return fmt.Errorf("seed order %s: %w", orders[i].ID, err)
		}
	}

	s.logger.Info("seeded demo ledger", zap.Int("accounts", len(accounts)), zap.Int("orders", len(orders)))
	return nil
}
