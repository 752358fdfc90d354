package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"checkout-service/config"
	"checkout-service/internal/models"
	"checkout-service/internal/service"
	"checkout-service/internal/store"
	"checkout-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	payments map[string]models.PaymentIntent
	getCalls int
}

func (g *stubGateway) CreatePayment(ctx context.Context, req *models.PaymentRequest, currency, method, description string) (*models.PaymentIntent, error) {
	intent := models.PaymentIntent{
		ID:          "tr_stub1",
		Amount:      models.Amount{Currency: currency, Value: req.Amount},
		Status:      models.StatusOpen,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Metadata:    req.Metadata,
		CheckoutURL: "https://pay.example.com/checkout/stub1",
	}
	g.payments[intent.ID] = intent
	return &intent, nil
}

func (g *stubGateway) GetPayment(ctx context.Context, id string) (*models.PaymentIntent, error) {
	g.getCalls++
	p, ok := g.payments[id]
	if !ok {
		return nil, &models.GatewayError{StatusCode: 404, Detail: "no payment exists with token " + id}
	}
	return &p, nil
}

func (g *stubGateway) ListPayments(ctx context.Context) ([]models.PaymentIntent, error) {
	out := make([]models.PaymentIntent, 0, len(g.payments))
	for _, p := range g.payments {
		out = append(out, p)
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubGateway, store.PaymentStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "payments.json"))
	require.NoError(t, err)

	gw := &stubGateway{payments: map[string]models.PaymentIntent{}}
	payments := service.NewPaymentService(gw, st, nil, nil, validation.New("0"), "EUR", "bancontact")
	reconciler := service.NewReconciler(gw, st, nil, nil)

	router := gin.New()
	NewHandler(payments, reconciler, config.GatewayConfig{ProfileID: "pfl_test", TestMode: true}).SetupRoutes(router)
	return router, gw, st
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePaymentEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/payments", map[string]string{
		"amount":    "10,00",
		"firstname": "Jean",
		"lastname":  "Dupont",
		"email":     "jean@example.com",
		"address":   "Rue de la Loi 16",
		"city":      "Brussels",
		"zipCode":   "1000",
		"country":   "BE",
		"officeId":  "1",
		"tenantId":  "2",
		"productId": "3",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tr_stub1", resp["id"])
	assert.NotEmpty(t, resp["checkoutUrl"])
	assert.Equal(t, models.StatusOpen, resp["status"])
}

func TestCreatePaymentValidationErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/payments", map[string]string{
		"amount": "abc",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Fields["amount"])
	assert.NotEmpty(t, resp.Fields["email"])
}

func TestStatusEndpointMissingID(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/payments/status", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gw.getCalls)
}

func TestStatusEndpointRejectsPlaceholder(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/payments/status?id="+url.QueryEscape("{id}"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "placeholder")
	// the placeholder is caught before any gateway call
	assert.Zero(t, gw.getCalls)
}

func TestStatusEndpointUnknownID(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/payments/status?id=tr_ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	paidAt := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	gw.payments["tr_1"] = models.PaymentIntent{
		ID:     "tr_1",
		Amount: models.Amount{Currency: "EUR", Value: "10.00"},
		Status: models.StatusPaid,
		PaidAt: &paidAt,
	}

	w := doJSON(router, http.MethodGet, "/api/v1/payments/status?id=tr_1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string `json:"status"`
		Terminal  bool   `json:"terminal"`
		Retryable bool   `json:"retryable"`
		Display   struct {
			Title string `json:"title"`
		} `json:"display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPaid, resp.Status)
	assert.True(t, resp.Terminal)
	assert.False(t, resp.Retryable)
	assert.Equal(t, "Payment successful!", resp.Display.Title)
}

func TestWebhookAlwaysRespondsOK(t *testing.T) {
	router, _, st := newTestRouter(t)

	// unknown id: processing fails internally, caller still gets 200
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader("id=tr_ghost"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	all, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWebhookDeliveredTwice(t *testing.T) {
	router, gw, st := newTestRouter(t)

	paidAt := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	gw.payments["tr_1"] = models.PaymentIntent{
		ID:     "tr_1",
		Amount: models.Amount{Currency: "EUR", Value: "10.00"},
		Status: models.StatusPaid,
		PaidAt: &paidAt,
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
			strings.NewReader("id=tr_1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	all, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusPaid, all[0].Status)
	require.NotNil(t, all[0].PaidAt)
}

func TestWebhookJSONBody(t *testing.T) {
	router, gw, st := newTestRouter(t)

	gw.payments["tr_1"] = models.PaymentIntent{
		ID:     "tr_1",
		Status: models.StatusOpen,
	}

	w := doJSON(router, http.MethodPost, "/api/v1/payments/webhook", map[string]string{"id": "tr_1"})
	assert.Equal(t, http.StatusOK, w.Code)

	all, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncEndpoint(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	gw.payments["tr_1"] = models.PaymentIntent{ID: "tr_1", Status: models.StatusPaid}
	gw.payments["tr_2"] = models.PaymentIntent{ID: "tr_2", Status: models.StatusOpen}

	w := doJSON(router, http.MethodGet, "/api/v1/payments/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["inserted"])

	// second run has nothing left to import
	w = doJSON(router, http.MethodGet, "/api/v1/payments/sync", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp["inserted"])
}

func TestListEndpoint(t *testing.T) {
	router, _, st := newTestRouter(t)

	require.NoError(t, st.AppendAll(context.Background(), []models.PaymentIntent{
		{ID: "tr_1", Metadata: models.Metadata{OfficeID: "1", TenantID: "1", ProductID: "1"}},
		{ID: "tr_2", Metadata: models.Metadata{OfficeID: "2", TenantID: "1", ProductID: "1"}},
	}))

	w := doJSON(router, http.MethodPost, "/api/v1/payments/list", map[string]interface{}{
		"officeId":  "0",
		"tenantId":  "0",
		"productId": "0",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var page models.PaymentPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, models.DefaultLimit, page.Pagination.Limit)
}

func TestCheckoutConfigEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/checkout/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pfl_test", resp["profileId"])
	assert.Equal(t, true, resp["testMode"])
}
