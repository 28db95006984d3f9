package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/creditdesk/internal/database"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/ledger"
	workflow "github.com/Additional-Code/creditdesk/internal/review"
	"github.com/Additional-Code/creditdesk/internal/store"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/creditdesk/repository/review")

// Repository is the database-backed order store.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	now    func() time.Time
}

var _ store.Store = (*Repository)(nil)

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListOrders returns orders newest first. A PENDING_REVIEW filter also
// matches rows that never had a review status assigned.
func (r *Repository) ListOrders(ctx context.Context, status *entity.ReviewStatus) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ReviewRepository.ListOrders")
	defer span.End()

	var orders []entity.Order
	q := r.reader.NewSelect().Model(&orders).OrderExpr("o.created_at DESC")
	if status != nil {
		span.SetAttributes(attribute.String("order.review_status", string(*status)))
		if *status == entity.ReviewPending {
			q = q.Where("(o.review_status = ? OR o.review_status IS NULL)", *status)
		} else {
			q = q.Where("o.review_status = ?", *status)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, spanError(span, err, "select failed")
	}
	return orders, nil
}

// GetOrder reads from the writer so callers checking settlement state never
// see a lagging replica.
func (r *Repository) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ReviewRepository.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	return r.selectOrder(ctx, r.writer, id, false)
}

// PatchOrder applies a partial update in one transaction. Payment may only
// move forward from pending to paid.
func (r *Repository) PatchOrder(ctx context.Context, id string, patch store.OrderPatch) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ReviewRepository.PatchOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if patch.Empty() {
		return r.selectOrder(ctx, r.writer, id, false)
	}

	var updated *entity.Order
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := r.selectOrder(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := validatePatch(current, patch); err != nil {
			return err
		}

		q := tx.NewUpdate().Model((*entity.Order)(nil)).
			Where("id = ?", id).
			Set("updated_at = ?", r.now())
		if patch.ReviewStatus != nil {
			q = q.Set("review_status = ?", *patch.ReviewStatus)
		}
		if p := patch.Payment; p != nil {
			q = q.Set("payment_method = ?", p.Method).
				Set("payment_status = ?", p.Status).
				Set("payment_paid_at = ?", p.PaidAt)
		}
		if patch.InvoicePDF != nil {
			q = q.Set("invoice_pdf = NULLIF(?, '')", *patch.InvoicePDF)
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}

		updated, err = r.selectOrder(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, spanError(span, err, "patch failed")
	}
	return updated, nil
}

// Settle marks a credit order paid and credits its account back inside a
// single transaction with both rows locked.
func (r *Repository) Settle(ctx context.Context, s store.Settlement) (*store.SettlementReceipt, error) {
	ctx, span := repoTracer.Start(ctx, "ReviewRepository.Settle", trace.WithAttributes(
		attribute.String("order.id", s.OrderID),
		attribute.String("account.id", s.AccountID),
	))
	defer span.End()

	var receipt store.SettlementReceipt
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		order, err := r.selectOrder(ctx, tx, s.OrderID, true)
		if err != nil {
			return err
		}
		if !order.IsCredit() {
			return &store.ValidationError{Message: "only credit orders can be marked as paid"}
		}
		if order.IsPaid() {
			return store.ErrAlreadySettled
		}
		if !order.Pricing.Total.Equal(s.Amount) {
			return &store.ValidationError{Message: fmt.Sprintf("settlement amount %s does not match order total %s", s.Amount, order.Pricing.Total)}
		}

		account := new(entity.Account)
		aq := tx.NewSelect().Model(account).Where("a.id = ?", s.AccountID)
		if r.supportsRowLocks() {
			aq = aq.For("UPDATE")
		}
		if err := aq.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrAccountNotFound
			}
			return err
		}

		credited, err := ledger.Policy{Strict: s.Strict}.Credit(*account, order.Pricing.Total)
		if err != nil {
			return err
		}

		now := r.now()
		paidAt := s.PaidAt.UTC()
		if _, err := tx.NewUpdate().Model((*entity.Order)(nil)).
			Where("id = ?", order.ID).
			Set("payment_status = ?", entity.PaymentPaid).
			Set("payment_paid_at = ?", paidAt).
			Set("updated_at = ?", now).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*entity.Account)(nil)).
			Where("id = ?", account.ID).
			Set("current_balance = ?", credited.CurrentBalance).
			Set("updated_at = ?", now).
			Exec(ctx); err != nil {
			return err
		}

		order.Payment.Status = entity.PaymentPaid
		order.Payment.PaidAt = &paidAt
		order.UpdatedAt = now
		credited.UpdatedAt = now
		receipt = store.SettlementReceipt{Order: *order, Account: credited}
		return nil
	})
	if err != nil {
		return nil, spanError(span, err, "settle failed")
	}
	return &receipt, nil
}

// ListAccounts returns every account ordered by name.
func (r *Repository) ListAccounts(ctx context.Context) ([]entity.Account, error) {
	ctx, span := repoTracer.Start(ctx, "ReviewRepository.ListAccounts")
	defer span.End()

	var accounts []entity.Account
	if err := r.reader.NewSelect().Model(&accounts).OrderExpr("a.name ASC, a.id ASC").Scan(ctx); err != nil {
		return nil, spanError(span, err, "select failed")
	}
	return accounts, nil
}

// ResolveAccount maps the order's billed identity onto an account.
func (r *Repository) ResolveAccount(ctx context.Context, order *entity.Order) (*entity.Account, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := ledger.Resolve(order, accounts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrAccountNotFound, err)
	}
	return account, nil
}

// CreateOrder inserts an order; used by the seeder.
func (r *Repository) CreateOrder(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	_, err := r.writer.NewInsert().Model(order).Ignore().Exec(ctx)
	return err
}

// CreateAccount inserts an account; used by the seeder.
func (r *Repository) CreateAccount(ctx context.Context, account *entity.Account) error {
	if account == nil {
		return errors.New("nil account")
	}
	_, err := r.writer.NewInsert().Model(account).Ignore().Exec(ctx)
	return err
}

func (r *Repository) selectOrder(ctx context.Context, db bun.IDB, id string, lock bool) (*entity.Order, error) {
	order := new(entity.Order)
	q := db.NewSelect().Model(order).Where("o.id = ?", id)
	if lock && r.supportsRowLocks() {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) supportsRowLocks() bool {
	return r.writer.Dialect().Name() != dialect.SQLite
}

func validatePatch(current *entity.Order, patch store.OrderPatch) error {
	if patch.ReviewStatus != nil {
		if _, err := workflow.ParseStatus(string(*patch.ReviewStatus)); err != nil {
			return &store.ValidationError{Message: err.Error()}
		}
	}
	if p := patch.Payment; p != nil {
		if current.IsPaid() && p.Status != entity.PaymentPaid {
			return &store.ValidationError{Message: "payment status cannot move back from paid"}
		}
		if p.Status == entity.PaymentPaid && !current.IsPaid() {
			return &store.ValidationError{Message: "payment can only be settled through settlement"}
		}
		if p.Method != current.Payment.Method {
			return &store.ValidationError{Message: "payment method is immutable"}
		}
	}
	return nil
}

func spanError(span trace.Span, err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAccountNotFound) {
		span.SetStatus(codes.Error, "not found")
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
