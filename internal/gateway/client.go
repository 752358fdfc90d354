// Package gateway wraps the hosted payment provider's REST API. The client
// holds only configuration and performs no caching: the provider is the sole
// source of truth for payment status, so staleness is always resolved by
// re-fetching.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"checkout-service/config"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// RedirectIDPlaceholder is embedded verbatim in the redirect URL; the
// provider does not substitute it, which is why the status endpoint must
// reject it as an id.
const RedirectIDPlaceholder = "{id}"

// Client talks to the payment provider.
type Client interface {
	CreatePayment(ctx context.Context, req *models.PaymentRequest, currency, method, description string) (*models.PaymentIntent, error)
	GetPayment(ctx context.Context, id string) (*models.PaymentIntent, error)
	ListPayments(ctx context.Context) ([]models.PaymentIntent, error)
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	cfg    config.GatewayConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a gateway client from immutable configuration.
func NewClient(cfg config.GatewayConfig) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: util.GetLogger(),
	}
}

// Wire types, shaped after the provider's v2 payments resource.

type apiAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type apiAddress struct {
	GivenName        string `json:"givenName"`
	FamilyName       string `json:"familyName"`
	OrganizationName string `json:"organizationName,omitempty"`
	StreetAndNumber  string `json:"streetAndNumber"`
	PostalCode       string `json:"postalCode"`
	City             string `json:"city"`
	Country          string `json:"country"`
	Email            string `json:"email"`
}

type createPaymentBody struct {
	Amount         apiAmount       `json:"amount"`
	Description    string          `json:"description"`
	BillingAddress apiAddress      `json:"billingAddress"`
	Metadata       models.Metadata `json:"metadata"`
	RedirectURL    string          `json:"redirectUrl"`
	CancelURL      string          `json:"cancelUrl,omitempty"`
	WebhookURL     string          `json:"webhookUrl,omitempty"`
	Method         string          `json:"method,omitempty"`
	Locale         string          `json:"locale,omitempty"`
	Testmode       bool            `json:"testmode,omitempty"`
}

type apiPayment struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Amount      apiAmount       `json:"amount"`
	Description string          `json:"description"`
	Method      string          `json:"method"`
	CreatedAt   time.Time       `json:"createdAt"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	Metadata    models.Metadata `json:"metadata"`
	Links       struct {
		Checkout *apiLink `json:"checkout,omitempty"`
	} `json:"_links"`
}

type apiLink struct {
	Href string `json:"href"`
}

type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type paymentListPage struct {
	Embedded struct {
		Payments []apiPayment `json:"payments"`
	} `json:"_embedded"`
	Links struct {
		Next *apiLink `json:"next,omitempty"`
	} `json:"_links"`
}

func (p *apiPayment) toIntent() models.PaymentIntent {
	intent := models.PaymentIntent{
		ID:          p.ID,
		Amount:      models.Amount{Currency: p.Amount.Currency, Value: p.Amount.Value},
		Status:      p.Status,
		Description: p.Description,
		Method:      p.Method,
		CreatedAt:   p.CreatedAt,
		PaidAt:      p.PaidAt,
		Metadata:    p.Metadata,
	}
	if p.Links.Checkout != nil {
		intent.CheckoutURL = p.Links.Checkout.Href
	}
	return intent
}

// CreatePayment registers a payment intent and returns it with the hosted
// checkout URL the customer must be redirected to for card entry and 3-DS.
func (c *HTTPClient) CreatePayment(ctx context.Context, req *models.PaymentRequest, currency, method, description string) (*models.PaymentIntent, error) {
	body := createPaymentBody{
		Amount: apiAmount{Currency: currency, Value: req.Amount},
		BillingAddress: apiAddress{
			GivenName:        req.Firstname,
			FamilyName:       req.Lastname,
			OrganizationName: req.Company,
			StreetAndNumber:  req.Address,
			PostalCode:       req.ZipCode,
			City:             req.City,
			Country:          req.Country,
			Email:            req.Email,
		},
		Metadata:    req.Metadata,
		Description: description,
		RedirectURL: c.cfg.BaseURL + "/payment/status?id=" + RedirectIDPlaceholder,
		CancelURL:   c.cfg.BaseURL,
		WebhookURL:  c.cfg.EffectiveWebhookURL(),
		Method:      method,
		Locale:      LocaleForCountry(req.Country),
		Testmode:    c.cfg.TestMode,
	}

	var payment apiPayment
	if err := c.do(ctx, http.MethodPost, "/payments", &body, &payment, "create_payment"); err != nil {
		return nil, err
	}

	c.logger.Info("Payment created at gateway",
		zap.String("payment_id", payment.ID),
		zap.String("status", payment.Status))

	intent := payment.toIntent()
	return &intent, nil
}

// GetPayment fetches the authoritative current state of a payment. An id the
// provider does not know yields an error matching models.ErrNotFound.
func (c *HTTPClient) GetPayment(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var payment apiPayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, &payment, "get_payment"); err != nil {
		return nil, err
	}
	intent := payment.toIntent()
	return &intent, nil
}

// ListPayments fetches the provider's full payment history, transparently
// following cursor pages. Order is the provider's, not the local store's.
func (c *HTTPClient) ListPayments(ctx context.Context) ([]models.PaymentIntent, error) {
	var all []models.PaymentIntent
	path := "/payments?limit=250"

	for path != "" {
		var page paymentListPage
		if err := c.do(ctx, http.MethodGet, path, nil, &page, "list_payments"); err != nil {
			return nil, err
		}
		for i := range page.Embedded.Payments {
			all = append(all, page.Embedded.Payments[i].toIntent())
		}
		path = ""
		if page.Links.Next != nil && page.Links.Next.Href != "" {
			next, err := c.relativize(page.Links.Next.Href)
			if err != nil {
				return nil, err
			}
			path = next
		}
	}

	return all, nil
}

// relativize strips the API base from a next-page link so it can be re-issued
// through do.
func (c *HTTPClient) relativize(href string) (string, error) {
	if len(href) >= len(c.cfg.APIBaseURL) && href[:len(c.cfg.APIBaseURL)] == c.cfg.APIBaseURL {
		return href[len(c.cfg.APIBaseURL):], nil
	}
	return "", fmt.Errorf("unexpected pagination link outside API base: %s", href)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}, operation string) error {
	start := time.Now()
	defer func() {
		util.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.GatewayError{StatusCode: 0, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.GatewayError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// decodeError preserves the provider's own message; a 404 keeps its distinct
// not-found identity all the way up to the HTTP layer.
func (c *HTTPClient) decodeError(resp *http.Response) error {
	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}

	c.logger.Warn("Gateway call failed",
		zap.Int("status", resp.StatusCode),
		zap.String("detail", apiErr.Detail))

	return &models.GatewayError{StatusCode: resp.StatusCode, Detail: apiErr.Detail}
}
