package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PgStore is the Postgres-backed payment log. Row-level upsert makes
// concurrent writers safe without the file store's process-wide mutex.
type PgStore struct {
	db *sqlx.DB
}

// pgPayment flattens PaymentIntent for sqlx scanning.
type pgPayment struct {
	ID          string       `db:"id"`
	Currency    string       `db:"currency"`
	Value       string       `db:"value"`
	Status      string       `db:"status"`
	Description string       `db:"description"`
	Method      string       `db:"method"`
	CreatedAt   time.Time    `db:"created_at"`
	PaidAt      sql.NullTime `db:"paid_at"`
	OfficeID    string       `db:"office_id"`
	TenantID    string       `db:"tenant_id"`
	ProductID   string       `db:"product_id"`
	CheckoutURL string       `db:"checkout_url"`
	Position    int64        `db:"position"`
}

func (r *pgPayment) toIntent() models.PaymentIntent {
	intent := models.PaymentIntent{
		ID:          r.ID,
		Amount:      models.Amount{Currency: r.Currency, Value: r.Value},
		Status:      r.Status,
		Description: r.Description,
		Method:      r.Method,
		CreatedAt:   r.CreatedAt,
		Metadata:    models.Metadata{OfficeID: r.OfficeID, TenantID: r.TenantID, ProductID: r.ProductID},
		CheckoutURL: r.CheckoutURL,
	}
	if r.PaidAt.Valid {
		t := r.PaidAt.Time
		intent.PaidAt = &t
	}
	return intent
}

// NewPgStore connects to Postgres and ensures the payments table exists.
func NewPgStore(databaseURL string) (*PgStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PgStore{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS payments (
	id           TEXT PRIMARY KEY,
	currency     TEXT NOT NULL,
	value        TEXT NOT NULL,
	status       TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	method       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	paid_at      TIMESTAMPTZ,
	office_id    TEXT NOT NULL DEFAULT '',
	tenant_id    TEXT NOT NULL DEFAULT '',
	product_id   TEXT NOT NULL DEFAULT '',
	checkout_url TEXT NOT NULL DEFAULT '',
	position     BIGSERIAL
)`

func (s *PgStore) Close() error {
	return s.db.Close()
}

// ReadAll returns every payment in insertion order.
func (s *PgStore) ReadAll(ctx context.Context) ([]models.PaymentIntent, error) {
	defer observe("read_all")()

	var rows []pgPayment
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM payments ORDER BY position")
	if err != nil {
		return nil, &models.StorageError{Op: "select", Err: err}
	}

	payments := make([]models.PaymentIntent, len(rows))
	for i := range rows {
		payments[i] = rows[i].toIntent()
	}
	return payments, nil
}

// Append inserts one record. An existing id is left untouched, preserving
// the one-record-per-id invariant.
func (s *PgStore) Append(ctx context.Context, record models.PaymentIntent) error {
	return s.AppendAll(ctx, []models.PaymentIntent{record})
}

// AppendAll inserts a batch within a single transaction.
func (s *PgStore) AppendAll(ctx context.Context, records []models.PaymentIntent) error {
	if len(records) == 0 {
		return nil
	}
	defer observe("append")()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &models.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO payments (id, currency, value, status, description, method, created_at, paid_at, office_id, tenant_id, product_id, checkout_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`

	for _, p := range records {
		var paidAt sql.NullTime
		if p.PaidAt != nil {
			paidAt = sql.NullTime{Time: *p.PaidAt, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.Amount.Currency, p.Amount.Value, p.Status, p.Description,
			p.Method, p.CreatedAt, paidAt,
			p.Metadata.OfficeID, p.Metadata.TenantID, p.Metadata.ProductID,
			p.CheckoutURL); err != nil {
			return &models.StorageError{Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// UpdateByID replaces the stored record for id. Missing ids are
// models.ErrNotFound.
func (s *PgStore) UpdateByID(ctx context.Context, id string, record models.PaymentIntent) error {
	defer observe("update_by_id")()

	var paidAt sql.NullTime
	if record.PaidAt != nil {
		paidAt = sql.NullTime{Time: *record.PaidAt, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET currency = $1, value = $2, status = $3, description = $4, method = $5,
		    created_at = $6, paid_at = $7, office_id = $8, tenant_id = $9,
		    product_id = $10, checkout_url = $11
		WHERE id = $12`,
		record.Amount.Currency, record.Amount.Value, record.Status,
		record.Description, record.Method, record.CreatedAt, paidAt,
		record.Metadata.OfficeID, record.Metadata.TenantID, record.Metadata.ProductID,
		record.CheckoutURL, id)
	if err != nil {
		return &models.StorageError{Op: "update", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &models.StorageError{Op: "update", Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("payment %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Query filters and paginates SQL-side. The sentinel match-all values skip
// their constraint entirely.
func (s *PgStore) Query(ctx context.Context, filter models.Filter, page models.PageRequest) (*models.PaymentPage, error) {
	defer observe("query")()

	page = page.Normalize()

	const where = `
		($1 = '' OR $1 = '0' OR office_id = $1) AND
		($2 = '' OR $2 = '0' OR tenant_id = $2) AND
		($3 = '' OR $3 = '0' OR product_id = $3)`

	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM payments WHERE"+where,
		filter.OfficeID, filter.TenantID, filter.ProductID)
	if err != nil {
		return nil, &models.StorageError{Op: "count", Err: err}
	}

	var rows []pgPayment
	err = s.db.SelectContext(ctx, &rows,
		"SELECT * FROM payments WHERE"+where+" ORDER BY position LIMIT $4 OFFSET $5",
		filter.OfficeID, filter.TenantID, filter.ProductID,
		page.Limit, (page.Page-1)*page.Limit)
	if err != nil {
		return nil, &models.StorageError{Op: "select", Err: err}
	}

	data := make([]models.PaymentIntent, len(rows))
	for i := range rows {
		data[i] = rows[i].toIntent()
	}

	return &models.PaymentPage{
		Data:       data,
		Pagination: models.NewPagination(page, total),
	}, nil
}
