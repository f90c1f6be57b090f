package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hausledger/backend/internal/fingerprint"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/store"
)

// testNow is the pinned clock for every service test.
var testNow = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestService(st store.Store) *LedgerService {
	return NewLedgerService(st, Config{
		PreliminaryMarker: "Varaus",
		Now:               func() time.Time { return testNow },
	})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCategory(t *testing.T, st store.Store, name string) *model.Category {
	t.Helper()
	category := &model.Category{ID: uuid.New(), Name: name}
	require.NoError(t, st.CreateCategory(context.Background(), category))
	return category
}

func seedTransaction(t *testing.T, st store.Store, date time.Time, merchant string, amount float64, categoryID *uuid.UUID) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		ID:           uuid.New(),
		Date:         date,
		Merchant:     merchant,
		Amount:       amount,
		CategoryID:   categoryID,
		OriginalHash: fingerprint.Compute(date, amount, merchant),
	}
	require.NoError(t, st.CreateTransaction(context.Background(), tx))
	return tx
}
