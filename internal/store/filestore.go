package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/util"
)

// document is the on-disk shape: a single JSON object holding every payment
// in insertion order.
type document struct {
	Payments []models.PaymentIntent `json:"payments"`
}

// FileStore keeps the payment log in one JSON file. Every mutation is a
// read-modify-write of the whole document, so all operations are funneled
// through one mutex and the file is replaced atomically (temp file + rename)
// to keep concurrent handlers from losing each other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore opens (or creates) the document at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(document{Payments: []models.PaymentIntent{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat store file: %w", err)
	}

	return s, nil
}

func (s *FileStore) Close() error {
	return nil
}

// ReadAll returns the current on-disk snapshot.
func (s *FileStore) ReadAll(ctx context.Context) ([]models.PaymentIntent, error) {
	defer observe("read_all")()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Payments, nil
}

// Append adds one record at the end of the document.
func (s *FileStore) Append(ctx context.Context, record models.PaymentIntent) error {
	return s.AppendAll(ctx, []models.PaymentIntent{record})
}

// AppendAll adds a batch of records in a single write.
func (s *FileStore) AppendAll(ctx context.Context, records []models.PaymentIntent) error {
	if len(records) == 0 {
		return nil
	}
	defer observe("append")()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Payments = append(doc.Payments, records...)
	return s.write(doc)
}

// UpdateByID replaces the record matching id. A missing id is reported as
// models.ErrNotFound.
func (s *FileStore) UpdateByID(ctx context.Context, id string, record models.PaymentIntent) error {
	defer observe("update_by_id")()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	for i := range doc.Payments {
		if doc.Payments[i].ID == id {
			doc.Payments[i] = record
			return s.write(doc)
		}
	}

	return fmt.Errorf("payment %s: %w", id, models.ErrNotFound)
}

// Query filters and paginates in memory; nothing is indexed or cached, the
// result is recomputed from the snapshot on every call.
func (s *FileStore) Query(ctx context.Context, filter models.Filter, page models.PageRequest) (*models.PaymentPage, error) {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.PaymentIntent, 0, len(all))
	for _, p := range all {
		if filter.Matches(p.Metadata) {
			filtered = append(filtered, p)
		}
	}

	return paginate(filtered, page), nil
}

func (s *FileStore) read() (document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return document{}, &models.StorageError{Op: "read", Err: err}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, &models.StorageError{Op: "decode", Err: err}
	}
	if doc.Payments == nil {
		doc.Payments = []models.PaymentIntent{}
	}
	return doc, nil
}

// write replaces the document atomically so readers never observe a torn
// file.
func (s *FileStore) write(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &models.StorageError{Op: "encode", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".payments-*.json")
	if err != nil {
		return &models.StorageError{Op: "write", Err: err}
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &models.StorageError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &models.StorageError{Op: "write", Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &models.StorageError{Op: "rename", Err: err}
	}
	return nil
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		util.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
