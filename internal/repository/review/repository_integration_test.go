//go:build integration

package review

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/database"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/migration"
	"github.com/Additional-Code/creditdesk/internal/store"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("creditdesk"),
		postgres.WithUsername("creditdesk"),
		postgres.WithPassword("creditdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conns, err := database.Open(config.Database{Driver: "postgres", WriterDSN: dsn, ReaderDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	m, err := migration.NewForDB("postgres", conns.Writer, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	return NewRepository(conns)
}

func seedCreditOrder(t *testing.T, repo *Repository) (*entity.Order, *entity.Account) {
	t.Helper()
	ctx := context.Background()

	account := &entity.Account{
		ID:             "acc-1",
		Name:           "Acme",
		CreditLimit:    decimal.NewFromInt(1000),
		CurrentBalance: decimal.NewFromInt(800),
	}
	require.NoError(t, repo.CreateAccount(ctx, account))

	order := &entity.Order{
		ID:      "ord-1",
		Status:  entity.FulfillmentPending,
		Payment: entity.Payment{Method: entity.PaymentCredit, Status: entity.PaymentPending},
		Pricing: entity.Pricing{Total: decimal.NewFromInt(500)},
		Customer: entity.CustomerRef{
			AccountID: account.ID,
			Name:      account.Name,
		},
		Items:     []entity.LineItem{},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateOrder(ctx, order))
	return order, account
}

func TestRepositorySettleIsAtMostOnce(t *testing.T) {
	repo := setupRepository(t)
	order, account := seedCreditOrder(t, repo)
	ctx := context.Background()

	settlement := store.Settlement{
		OrderID:   order.ID,
		AccountID: account.ID,
		Amount:    order.Pricing.Total,
		PaidAt:    time.Now(),
	}

	receipt, err := repo.Settle(ctx, settlement)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, receipt.Order.Payment.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(receipt.Account.CurrentBalance))

	_, err = repo.Settle(ctx, settlement)
	assert.ErrorIs(t, err, store.ErrAlreadySettled)

	accounts, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(accounts[0].CurrentBalance))
}

func TestRepositoryPatchReviewStatus(t *testing.T) {
	repo := setupRepository(t)
	order, _ := seedCreditOrder(t, repo)
	ctx := context.Background()

	pending := entity.ReviewPending
	listed, err := repo.ListOrders(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	rejected := entity.ReviewRejected
	updated, err := repo.PatchOrder(ctx, order.ID, store.OrderPatch{ReviewStatus: &rejected})
	require.NoError(t, err)
	assert.Equal(t, entity.ReviewRejected, updated.ReviewStatus)
	assert.Equal(t, order.Payment.Status, updated.Payment.Status)
	assert.True(t, order.Pricing.Total.Equal(updated.Pricing.Total))

	_, err = repo.PatchOrder(ctx, "missing", store.OrderPatch{ReviewStatus: &rejected})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepositoryResolveAccountByName(t *testing.T) {
	repo := setupRepository(t)
	order, account := seedCreditOrder(t, repo)

	order.Customer.AccountID = ""
	got, err := repo.ResolveAccount(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	order.Customer.Name = "Nobody"
	_, err = repo.ResolveAccount(context.Background(), order)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}
