package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"checkout-service/config"
	"checkout-service/internal/gateway"
	"checkout-service/internal/hosted"
	"checkout-service/internal/models"
	"checkout-service/internal/service"
	"checkout-service/internal/status"
	"checkout-service/internal/util"
	"checkout-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	payments   *service.PaymentService
	reconciler *service.Reconciler
	gatewayCfg config.GatewayConfig
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(payments *service.PaymentService, reconciler *service.Reconciler, gatewayCfg config.GatewayConfig) *Handler {
	return &Handler{
		payments:   payments,
		reconciler: reconciler,
		gatewayCfg: gatewayCfg,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/payments", h.createPayment)
		v1.GET("/payments/status", h.paymentStatus)
		v1.POST("/payments/webhook", h.webhook)
		v1.GET("/payments/sync", h.sync)
		v1.POST("/payments/list", h.listPayments)
		v1.GET("/checkout/config", h.checkoutConfig)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createPayment validates the checkout form and creates a payment intent at
// the gateway, returning the hosted checkout URL the customer is sent to.
func (h *Handler) createPayment(c *gin.Context) {
	var form validation.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	intent, err := h.payments.CreateCheckout(c.Request.Context(), form)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"fields": verr.Fields,
			})
			return
		}
		c.JSON(gatewayHTTPStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          intent.ID,
		"checkoutUrl": intent.CheckoutURL,
		"status":      intent.Status,
	})
}

// paymentStatus reports the authoritative state of one payment. The literal
// redirect placeholder is rejected before any gateway call is made.
func (h *Handler) paymentStatus(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment ID is required"})
		return
	}
	if id == gateway.RedirectIDPlaceholder {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Payment ID is the redirect placeholder, use the real ID",
		})
		return
	}

	payment, err := h.payments.GetStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		c.JSON(gatewayHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	display := status.Project(payment.Status)
	c.JSON(http.StatusOK, gin.H{
		"id":          payment.ID,
		"status":      payment.Status,
		"amount":      payment.Amount,
		"description": payment.Description,
		"paidAt":      payment.PaidAt,
		"display":     display,
		"terminal":    status.IsTerminal(payment.Status),
		"retryable":   status.IsRetryable(payment.Status),
	})
}

// webhook receives status-change notifications from the gateway. It always
// answers 200: the caller can only react to a non-2xx by retrying, and
// retries help nobody once the failure is logged here.
func (h *Handler) webhook(c *gin.Context) {
	id := h.webhookPaymentID(c)
	if id == "" {
		h.logger.Warn("Webhook delivery without payment id")
		c.Status(http.StatusOK)
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), id); err != nil {
		h.logger.Error("Webhook processing failed",
			zap.String("payment_id", id),
			zap.Error(err))
	}

	c.Status(http.StatusOK)
}

// webhookPaymentID extracts the payment id from a form-encoded or JSON body.
func (h *Handler) webhookPaymentID(c *gin.Context) string {
	if strings.Contains(c.ContentType(), "json") {
		var body struct {
			ID string `json:"id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			return ""
		}
		return body.ID
	}
	return c.PostForm("id")
}

// sync triggers a reconciliation run and reports how many payments were
// imported.
func (h *Handler) sync(c *gin.Context) {
	inserted, err := h.reconciler.Synchronize(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// listPayments returns one page of the local payment log.
func (h *Handler) listPayments(c *gin.Context) {
	var req struct {
		models.Filter
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	page, err := h.payments.List(c.Request.Context(),
		req.Filter,
		models.PageRequest{Page: req.Page, Limit: req.Limit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// checkoutConfig hands the browser what it needs to mount the hosted card
// widget.
func (h *Handler) checkoutConfig(c *gin.Context) {
	c.JSON(http.StatusOK, hosted.BootstrapConfig{
		ProfileID: h.gatewayCfg.ProfileID,
		TestMode:  h.gatewayCfg.TestMode,
		Locale:    gateway.LocaleForCountry(""),
	})
}

// gatewayHTTPStatus mirrors the provider's status where it carries one, and
// falls back to 502 for transport-level failures.
func gatewayHTTPStatus(err error) int {
	var gerr *models.GatewayError
	if errors.As(err, &gerr) {
		if gerr.StatusCode >= 400 && gerr.StatusCode < 600 {
			return gerr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusCode,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusCode,
		).Inc()
	}
}
