package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/config"
	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *models.PaymentRequest {
	return &models.PaymentRequest{
		Amount:    "10.00",
		Firstname: "Jean",
		Lastname:  "Dupont",
		Email:     "jean@example.com",
		Address:   "Rue de la Loi 16",
		City:      "Brussels",
		ZipCode:   "1000",
		Country:   "BE",
		Metadata:  models.Metadata{OfficeID: "1", TenantID: "2", ProductID: "3"},
	}
}

func newTestClient(srvURL, baseURL string) *HTTPClient {
	return NewClient(config.GatewayConfig{
		APIKey:     "test_key",
		APIBaseURL: srvURL,
		BaseURL:    baseURL,
	})
}

func TestCreatePayment(t *testing.T) {
	var captured createPaymentBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		require.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"id": "tr_abc123",
			"status": "open",
			"amount": {"currency": "EUR", "value": "10.00"},
			"description": "Payment from Jean",
			"createdAt": "2025-06-01T12:00:00Z",
			"metadata": {"officeId": "1", "tenantId": "2", "productId": "3"},
			"_links": {"checkout": {"href": "https://pay.example.com/checkout/abc123"}}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "http://localhost:8080")

	intent, err := c.CreatePayment(context.Background(), testRequest(), "EUR", "bancontact", "Payment from Jean")
	require.NoError(t, err)

	assert.Equal(t, "tr_abc123", intent.ID)
	assert.Equal(t, models.StatusOpen, intent.Status)
	assert.NotEmpty(t, intent.CheckoutURL)

	assert.Equal(t, "10.00", captured.Amount.Value)
	assert.Equal(t, "EUR", captured.Amount.Currency)
	assert.Equal(t, "Jean", captured.BillingAddress.GivenName)
	assert.Equal(t, "fr_BE", captured.Locale)
	assert.Equal(t, "http://localhost:8080/payment/status?id="+RedirectIDPlaceholder, captured.RedirectURL)
	// localhost never registers a webhook the provider cannot reach
	assert.Empty(t, captured.WebhookURL)
}

func TestCreatePaymentWebhookOnPublicURL(t *testing.T) {
	var captured createPaymentBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"id": "tr_1", "status": "open", "amount": {"currency": "EUR", "value": "10.00"}, "createdAt": "2025-06-01T12:00:00Z", "_links": {}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "https://shop.example.com")

	_, err := c.CreatePayment(context.Background(), testRequest(), "EUR", "bancontact", "x")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api/v1/payments/webhook", captured.WebhookURL)
}

func TestCreatePaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"status": 422, "title": "Unprocessable Entity", "detail": "The amount is higher than the maximum"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "http://localhost:8080")

	_, err := c.CreatePayment(context.Background(), testRequest(), "EUR", "bancontact", "x")
	require.Error(t, err)

	var gerr *models.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 422, gerr.StatusCode)
	// the provider's own message must survive
	assert.Contains(t, gerr.Detail, "higher than the maximum")
}

func TestGetPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status": 404, "title": "Not Found", "detail": "No payment exists with token tr_unknown."}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "http://localhost:8080")

	_, err := c.GetPayment(context.Background(), "tr_unknown")
	require.Error(t, err)
	// not-found must stay distinguishable from other gateway failures
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/tr_abc123", r.URL.Path)
		fmt.Fprint(w, `{
			"id": "tr_abc123",
			"status": "paid",
			"amount": {"currency": "EUR", "value": "10.00"},
			"description": "Payment from Jean",
			"createdAt": "2025-06-01T12:00:00Z",
			"paidAt": "2025-06-01T12:05:00Z",
			"metadata": {"officeId": "1", "tenantId": "2", "productId": "3"},
			"_links": {}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "http://localhost:8080")

	intent, err := c.GetPayment(context.Background(), "tr_abc123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, intent.Status)
	require.NotNil(t, intent.PaidAt)
	assert.Equal(t, models.Metadata{OfficeID: "1", TenantID: "2", ProductID: "3"}, intent.Metadata)
}

func TestListPaymentsFollowsPages(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/payments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") == "tr_3" {
			fmt.Fprint(w, `{
				"_embedded": {"payments": [
					{"id": "tr_3", "status": "open", "amount": {"currency": "EUR", "value": "3.00"}, "createdAt": "2025-06-01T12:00:00Z", "_links": {}}
				]},
				"_links": {}
			}`)
			return
		}
		fmt.Fprintf(w, `{
			"_embedded": {"payments": [
				{"id": "tr_1", "status": "paid", "amount": {"currency": "EUR", "value": "1.00"}, "createdAt": "2025-06-01T12:00:00Z", "_links": {}},
				{"id": "tr_2", "status": "failed", "amount": {"currency": "EUR", "value": "2.00"}, "createdAt": "2025-06-01T12:00:00Z", "_links": {}}
			]},
			"_links": {"next": {"href": "%s/payments?from=tr_3&limit=250"}}
		}`, srvURL)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c := newTestClient(srv.URL, "http://localhost:8080")

	payments, err := c.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, "tr_1", payments[0].ID)
	assert.Equal(t, "tr_3", payments[2].ID)
}
