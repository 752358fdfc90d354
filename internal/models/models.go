package models

import "time"

// Amount is a monetary value as the gateway represents it: a 3-letter
// currency code and a decimal string with two fraction digits.
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// Metadata is the local classification tri-tuple attached to a payment at
// creation. The gateway round-trips it unchanged and never interprets it.
type Metadata struct {
	OfficeID  string `json:"officeId"`
	TenantID  string `json:"tenantId"`
	ProductID string `json:"productId"`
}

// PaymentIntent mirrors a single gateway payment. The gateway assigns the ID
// and owns the status; the local store never generates ids of its own.
type PaymentIntent struct {
	ID          string     `json:"id"`
	Amount      Amount     `json:"amount"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Method      string     `json:"method,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	Metadata    Metadata   `json:"metadata"`
	CheckoutURL string     `json:"checkoutUrl,omitempty"`
}

// Payment statuses as the gateway reports them. The set is closed on the
// gateway side; anything unrecognized is projected to StatusOther.
const (
	StatusOpen     = "open"
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
	StatusOther    = "other"
)

// FilterMatchAll is the sentinel meaning "no constraint" for a filter field.
// The UI sends "0" for an unselected dropdown; an empty string means the same.
const FilterMatchAll = "0"

// Filter selects payments by exact metadata match, AND-combined. A field set
// to FilterMatchAll or "" matches every record.
type Filter struct {
	OfficeID  string `json:"officeId"`
	TenantID  string `json:"tenantId"`
	ProductID string `json:"productId"`
}

// Matches reports whether a payment's metadata satisfies the filter.
func (f Filter) Matches(m Metadata) bool {
	return matchField(f.OfficeID, m.OfficeID) &&
		matchField(f.TenantID, m.TenantID) &&
		matchField(f.ProductID, m.ProductID)
}

func matchField(want, got string) bool {
	if want == FilterMatchAll || want == "" {
		return true
	}
	return want == got
}

// Default page parameters applied when the caller sends nothing or junk.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest is a 1-based page selection. Non-positive values are replaced
// by the defaults, never rejected.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize returns a copy with non-positive fields replaced by defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Pagination describes the slice a query returned relative to the full
// filtered result set.
type Pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	Total           int  `json:"total"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// PaymentPage is the paginated envelope returned by the list endpoint.
type PaymentPage struct {
	Data       []PaymentIntent `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// NewPagination computes the envelope metadata for a page over total records.
func NewPagination(page PageRequest, total int) Pagination {
	totalPages := (total + page.Limit - 1) / page.Limit
	return Pagination{
		Page:            page.Page,
		Limit:           page.Limit,
		Total:           total,
		TotalPages:      totalPages,
		HasNextPage:     page.Page < totalPages,
		HasPreviousPage: page.Page > 1,
	}
}

// PaymentRequest is a validated, normalized checkout submission. Amount is
// already dot-separated with two decimals and Country is upper-cased.
type PaymentRequest struct {
	Amount    string   `json:"amount"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Company   string   `json:"company,omitempty"`
	Email     string   `json:"email"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	ZipCode   string   `json:"zipCode"`
	Country   string   `json:"country"`
	Metadata  Metadata `json:"metadata"`
}
