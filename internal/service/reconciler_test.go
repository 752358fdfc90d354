package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (*Reconciler, *fakeGateway, store.PaymentStore, *capturePublisher) {
	t.Helper()

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "payments.json"))
	require.NoError(t, err)

	gw := newFakeGateway()
	pub := &capturePublisher{}
	return NewReconciler(gw, st, nil, pub), gw, st, pub
}

func remotePayment(id string) models.PaymentIntent {
	return models.PaymentIntent{
		ID:        id,
		Amount:    models.Amount{Currency: "EUR", Value: "25.00"},
		Status:    models.StatusPaid,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Metadata:  models.Metadata{OfficeID: "1", TenantID: "1", ProductID: "1"},
	}
}

func TestSynchronizeImportsMissing(t *testing.T) {
	r, gw, st, pub := newTestReconciler(t)
	ctx := context.Background()

	gw.payments["tr_1"] = remotePayment("tr_1")
	gw.payments["tr_2"] = remotePayment("tr_2")
	gw.payments["tr_3"] = remotePayment("tr_3")
	require.NoError(t, st.Append(ctx, remotePayment("tr_2")))

	inserted, err := r.Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	all, err := st.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ids := map[string]int{}
	for _, p := range all {
		ids[p.ID]++
	}
	for _, id := range []string{"tr_1", "tr_2", "tr_3"} {
		assert.Equal(t, 1, ids[id], "expected exactly one record for %s", id)
	}

	require.Len(t, pub.imported, 1)
	assert.Equal(t, 2, pub.imported[0].Inserted)
}

func TestSynchronizeIdempotent(t *testing.T) {
	r, gw, _, _ := newTestReconciler(t)
	ctx := context.Background()

	gw.payments["tr_1"] = remotePayment("tr_1")
	gw.payments["tr_2"] = remotePayment("tr_2")

	first, err := r.Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	second, err := r.Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestSynchronizeNeverTouchesExistingRecords(t *testing.T) {
	r, gw, st, _ := newTestReconciler(t)
	ctx := context.Background()

	// the local copy deliberately disagrees with the gateway; the import-only
	// contract means reconciliation must leave it alone
	local := remotePayment("tr_1")
	local.Status = models.StatusOpen
	local.PaidAt = nil
	require.NoError(t, st.Append(ctx, local))

	remote := remotePayment("tr_1")
	paidAt := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	remote.PaidAt = &paidAt
	gw.payments["tr_1"] = remote
	gw.payments["tr_2"] = remotePayment("tr_2")

	inserted, err := r.Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	all, err := st.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, local, all[0])
}

func TestSynchronizeNormalizesUnknownStatus(t *testing.T) {
	r, gw, st, _ := newTestReconciler(t)
	ctx := context.Background()

	remote := remotePayment("tr_1")
	remote.Status = "settled"
	gw.payments["tr_1"] = remote

	inserted, err := r.Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	all, err := st.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusOther, all[0].Status)
}

func TestSynchronizeEmptyRemote(t *testing.T) {
	r, _, st, pub := newTestReconciler(t)

	inserted, err := r.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	all, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, pub.imported)
}
