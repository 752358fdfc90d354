// Package store persists the local payment log. Records are keyed by the
// gateway-assigned id; the store never invents ids and never deletes.
package store

import (
	"context"

	"checkout-service/internal/models"
)

// PaymentStore is the local payment log. Two backends exist: a mutex-guarded
// JSON document (default) and a Postgres table with atomic upsert-by-key.
// Either one keeps concurrent Append/UpdateByID calls from losing writes.
type PaymentStore interface {
	// ReadAll returns the current snapshot in insertion order.
	ReadAll(ctx context.Context) ([]models.PaymentIntent, error)
	// Append adds one record at the end.
	Append(ctx context.Context, record models.PaymentIntent) error
	// AppendAll adds a batch of records in one write.
	AppendAll(ctx context.Context, records []models.PaymentIntent) error
	// UpdateByID replaces the record with the matching id in place.
	// A missing id is models.ErrNotFound, never a silent no-op.
	UpdateByID(ctx context.Context, id string, record models.PaymentIntent) error
	// Query applies the filter and returns one page plus the envelope.
	Query(ctx context.Context, filter models.Filter, page models.PageRequest) (*models.PaymentPage, error)
	Close() error
}

// paginate slices a filtered result set. Shared by backends that filter in
// memory.
func paginate(filtered []models.PaymentIntent, page models.PageRequest) *models.PaymentPage {
	page = page.Normalize()
	total := len(filtered)

	start := (page.Page - 1) * page.Limit
	end := start + page.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]models.PaymentIntent, end-start)
	copy(data, filtered[start:end])

	return &models.PaymentPage{
		Data:       data,
		Pagination: models.NewPagination(page, total),
	}
}
