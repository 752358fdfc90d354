// Package status is the single place the raw gateway status is turned into
// user-facing display data and a terminal/retryable classification. The
// webhook logging, the status endpoint and the list surface all consume this
// one mapping.
package status

import (
	"fmt"

	"checkout-service/internal/models"
)

// Display is the presentation of a payment status.
type Display struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Icon     string `json:"icon"`
	CSSClass string `json:"cssClass"`
}

var displays = map[string]Display{
	models.StatusPaid: {
		Title:    "Payment successful!",
		Message:  "Your payment has been processed successfully.",
		Icon:     "✅",
		CSSClass: "status-paid",
	},
	models.StatusOpen: {
		Title:    "Payment pending",
		Message:  "Your payment is being processed.",
		Icon:     "⏳",
		CSSClass: "status-pending",
	},
	models.StatusPending: {
		Title:    "Payment pending",
		Message:  "Your payment is being processed.",
		Icon:     "⏳",
		CSSClass: "status-pending",
	},
	models.StatusFailed: {
		Title:    "Payment failed",
		Message:  "Your payment could not be processed.",
		Icon:     "❌",
		CSSClass: "status-failed",
	},
	models.StatusCanceled: {
		Title:    "Payment canceled",
		Message:  "You canceled the payment.",
		Icon:     "🚫",
		CSSClass: "status-canceled",
	},
	models.StatusExpired: {
		Title:    "Payment expired",
		Message:  "The payment window has expired.",
		Icon:     "⏰",
		CSSClass: "status-expired",
	},
}

// Project maps a raw gateway status to its display data. Unrecognized values
// fall back to a generic projection rather than failing.
func Project(s string) Display {
	if d, ok := displays[s]; ok {
		return d
	}
	return Display{
		Title:    "Payment status",
		Message:  fmt.Sprintf("Status: %s", s),
		Icon:     "ℹ️",
		CSSClass: "status-other",
	}
}

// Normalize collapses any unknown gateway value onto the closed local set.
func Normalize(s string) string {
	switch s {
	case models.StatusOpen, models.StatusPending, models.StatusPaid,
		models.StatusFailed, models.StatusCanceled, models.StatusExpired:
		return s
	}
	return models.StatusOther
}

// IsTerminal reports whether the gateway will never move the payment again.
// Paid is terminal-success; failed, canceled and expired are terminal too.
func IsTerminal(s string) bool {
	switch s {
	case models.StatusPaid, models.StatusFailed, models.StatusCanceled, models.StatusExpired:
		return true
	}
	return false
}

// IsRetryable reports whether offering a "retry payment" action makes sense:
// only the terminal non-success states qualify.
func IsRetryable(s string) bool {
	return IsTerminal(s) && s != models.StatusPaid
}
