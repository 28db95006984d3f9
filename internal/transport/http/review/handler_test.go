package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/filter"
	"github.com/Additional-Code/creditdesk/internal/presentation/http/request"
	service "github.com/Additional-Code/creditdesk/internal/service/review"
	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

type fakeService struct {
	lastQuery  filter.Query
	lastTarget string
	err        error
}

func (f *fakeService) ListForReview(_ context.Context, q filter.Query) (*service.ReviewList, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &service.ReviewList{
		Orders: []entity.Order{{ID: "o2", ReviewStatus: entity.ReviewApproved}},
		Summary: filter.Summary{
			Count: 1, Total: decimal.NewFromInt(200), BestAccount: "Acme",
		},
	}, nil
}

func (f *fakeService) GetOrder(_ context.Context, id string) (*entity.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Order{ID: id}, nil
}

func (f *fakeService) Transition(_ context.Context, id, target string) (*service.TransitionOutcome, error) {
	f.lastTarget = target
	if f.err != nil {
		return nil, f.err
	}
	return &service.TransitionOutcome{
		Order:    &entity.Order{ID: id, ReviewStatus: entity.ReviewApproved},
		Previous: entity.ReviewPending,
		Result:   service.ResultApprovedBalanceSettled,
	}, nil
}

func (f *fakeService) MarkAsPaid(_ context.Context, id string) (*service.SettlementOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.SettlementOutcome{
		Order: &entity.Order{ID: id, Payment: entity.Payment{Method: entity.PaymentCredit, Status: entity.PaymentPaid}},
		Account: entity.Account{
			ID: "acc-1", Name: "Acme", CreditLimit: decimal.NewFromInt(1000), CurrentBalance: decimal.NewFromInt(300),
		},
	}, nil
}

func (f *fakeService) AttachInvoice(_ context.Context, id, ref string) (*entity.Order, error) {
	return &entity.Order{ID: id, InvoicePDF: ref}, f.err
}

func (f *fakeService) ListAccounts(context.Context) ([]service.AccountBalance, error) {
	return []service.AccountBalance{{Account: entity.Account{ID: "acc-1", Name: "Acme"}}}, f.err
}

func newServer(svc Service) *echo.Echo {
	e := echo.New()
	e.Validator = request.NewValidator()
	Register(e, &Handler{svc: svc})
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestListOrdersParsesFacets(t *testing.T) {
	svc := &fakeService{}
	code, body := do(t, newServer(svc), http.MethodGet, "/orders?status=approved&account=Acme&month=2026-03", "")

	require.Equal(t, http.StatusOK, code)
	status, ok := svc.lastQuery.Status()
	require.True(t, ok)
	assert.Equal(t, entity.ReviewApproved, status)
	assert.Equal(t, "Acme", svc.lastQuery.Account())
	assert.Equal(t, filter.DateMonth, svc.lastQuery.Date().Kind())

	data := body["data"].(map[string]any)
	assert.Len(t, data["orders"], 1)
	assert.Equal(t, "200", data["summary"].(map[string]any)["total"])
}

func TestListOrdersRejectsMalformedDate(t *testing.T) {
	svc := &fakeService{}
	code, body := do(t, newServer(svc), http.MethodGet, "/orders?date=03/01/2026", "")

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "validation", errBody["kind"])
	assert.Contains(t, errBody["details"], "date")
}

func TestTransitionReportsResultCode(t *testing.T) {
	svc := &fakeService{}
	code, body := do(t, newServer(svc), http.MethodPatch, "/orders/o1/review-status", `{"status":"APPROVED"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "APPROVED", svc.lastTarget)
	assert.Equal(t, "approved_balance_settled", body["meta"].(map[string]any)["result"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "PENDING_REVIEW", data["previousStatus"])
}

func TestTransitionRequiresStatus(t *testing.T) {
	code, body := do(t, newServer(&fakeService{}), http.MethodPatch, "/orders/o1/review-status", `{}`)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]any{"status": "is required"}, body["error"].(map[string]any)["details"])
}

func TestMarkPaidReturnsAccount(t *testing.T) {
	code, body := do(t, newServer(&fakeService{}), http.MethodPost, "/orders/o1/mark-paid", "")

	require.Equal(t, http.StatusOK, code)
	account := body["data"].(map[string]any)["account"].(map[string]any)
	assert.Equal(t, "300", account["currentBalance"])
	assert.Equal(t, "700", account["availableBalance"])
}

func TestErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{errorbank.Validation("order already paid"), http.StatusUnprocessableEntity},
		{errorbank.NotFound("account not found"), http.StatusNotFound},
		{errorbank.Network("i/o timeout"), http.StatusBadGateway},
		{errorbank.Invariant("account balance would become negative"), http.StatusConflict},
	}
	for _, tc := range cases {
		code, body := do(t, newServer(&fakeService{err: tc.err}), http.MethodPost, "/orders/o1/mark-paid", "")
		assert.Equal(t, tc.code, code)
		assert.Equal(t, tc.err.Error(), body["error"].(map[string]any)["message"])
		assert.NotContains(t, body, "data")
	}
}

func TestAttachInvoiceAndAccounts(t *testing.T) {
	e := newServer(&fakeService{})

	code, body := do(t, e, http.MethodPut, "/orders/o1/invoice", `{"invoicePdf":"invoices/o1.pdf"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "invoices/o1.pdf", body["data"].(map[string]any)["invoicePdf"])

	code, body = do(t, e, http.MethodGet, "/accounts", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
}
