package orderstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.Store{BaseURL: srv.URL, Timeout: 2 * time.Second}, zaptest.NewLogger(t))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListOrdersSendsStatusAndToleratesUnknownFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "APPROVED", r.URL.Query().Get("reviewStatus"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"o1","reviewStatus":"APPROVED","pricing":{"total":"200"},"warehouse":"north"}]`))
	})

	status := entity.ReviewApproved
	orders, err := c.ListOrders(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
	assert.True(t, decimal.NewFromInt(200).Equal(orders[0].Pricing.Total))
}

func TestListPendingKeepsOrdersWithoutReviewStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("reviewStatus"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"legacy","status":"pending"},
			{"id":"o2","reviewStatus":"PENDING_REVIEW"},
			{"id":"o3","reviewStatus":"APPROVED"}
		]`))
	})

	status := entity.ReviewPending
	orders, err := c.ListOrders(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "legacy", orders[0].ID)
	assert.Equal(t, "o2", orders[1].ID)
}

func TestPatchOrderIsSinglePatchRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/o1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"reviewStatus": "REJECTED"}, body)

		writeJSON(w, http.StatusOK, entity.Order{ID: "o1", ReviewStatus: entity.ReviewRejected})
	})

	rejected := entity.ReviewRejected
	order, err := c.PatchOrder(context.Background(), "o1", store.OrderPatch{ReviewStatus: &rejected})
	require.NoError(t, err)
	assert.Equal(t, entity.ReviewRejected, order.ReviewStatus)
	assert.Equal(t, 1, calls)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    apiError
		target  error
		message string
	}{
		{"not found", http.StatusNotFound, apiError{Message: "no such order"}, store.ErrNotFound, "no such order"},
		{"account not found", http.StatusNotFound, apiError{Code: codeAccountNotFound, Message: "no account for Acme"}, store.ErrAccountNotFound, "no account for Acme"},
		{"already settled", http.StatusConflict, apiError{Message: "already paid"}, store.ErrAlreadySettled, "already paid"},
		{"validation", http.StatusUnprocessableEntity, apiError{Message: "total mismatch"}, store.ErrValidation, "total mismatch"},
		{"server error", http.StatusBadGateway, apiError{Message: "upstream down"}, store.ErrNetwork, "upstream down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			_, err := c.Settle(context.Background(), store.Settlement{OrderID: "o1", AccountID: "a1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.Store{BaseURL: url, Timeout: time.Second}, zaptest.NewLogger(t))
	_, err := c.GetOrder(context.Background(), "o1")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNetwork)

	var netErr *store.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "GET /orders/{id}", netErr.Op)
}

func TestResolveAccountFallsBackToCompany(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		writeJSON(w, http.StatusOK, []entity.Account{
			{ID: "a1", Name: "Acme", CompanyID: "C-1"},
			{ID: "a2", Name: "Globex", CompanyID: "C-2"},
		})
	})

	order := &entity.Order{Customer: entity.CustomerRef{Name: "Globex Trading", CompanyID: "C-2"}}
	account, err := c.ResolveAccount(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "a2", account.ID)

	order.Customer.CompanyID = "C-9"
	_, err = c.ResolveAccount(context.Background(), order)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}
