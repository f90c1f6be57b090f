package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/statement"
	"github.com/hausledger/backend/internal/store"
)

func amt(v float64) *float64 { return &v }

func row(date time.Time, merchant string, amount float64) statement.Row {
	booking := date
	return statement.Row{
		Date:        date,
		BookingDate: &booking,
		Merchant:    merchant,
		Amount:      amt(amount),
	}
}

func TestIngestInsertsValidRows(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	rows := []statement.Row{
		row(day(2026, 1, 10), "K Market Vallila", -23.50),
		row(day(2026, 1, 12), "Netflix", -12.99),
		row(day(2026, 1, 15), "Salary Acme Oy", 3200.00),
	}

	result, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NewCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 0, result.CategorizedCount)

	_, total, err := st.ListTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestIngestIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	rows := []statement.Row{
		row(day(2026, 1, 10), "K Market Vallila", -23.50),
		row(day(2026, 1, 12), "Netflix", -12.99),
	}

	first, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewCount)

	second, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 2, second.SkippedCount)

	_, total, err := st.ListTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestIngestSkipsEditedDuplicates(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()
	groceries := seedCategory(t, st, "Groceries")

	rows := []statement.Row{
		row(day(2026, 1, 10), "K Market Vallila", -23.50),
		row(day(2026, 1, 12), "Netflix", -12.99),
	}

	first, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	require.Equal(t, 2, first.NewCount)

	txs, _, err := st.ListTransactions(ctx, store.TransactionFilter{MerchantQuery: "k market"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NoError(t, svc.SetCategory(ctx, txs[0].ID, &groceries.ID))

	second, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 2, second.SkippedCount)

	edited, err := st.GetTransaction(ctx, txs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, edited.CategoryID)
	assert.Equal(t, groceries.ID, *edited.CategoryID)

	_, total, err := st.ListTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestIngestOverlappingFiles(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	december := []statement.Row{
		row(day(2025, 12, 28), "Netflix", -12.99),
		row(day(2025, 12, 30), "K Market Vallila", -18.20),
	}
	januaryWithTail := []statement.Row{
		row(day(2025, 12, 30), "K Market Vallila", -18.20),
		row(day(2026, 1, 5), "Netflix", -12.99),
	}

	_, err := svc.Ingest(ctx, "december.csv", "user-1", december, nil)
	require.NoError(t, err)

	result, err := svc.Ingest(ctx, "january.csv", "user-1", januaryWithTail, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewCount)
	assert.Equal(t, 1, result.SkippedCount)

	// Same merchant and amount on a different date is a new transaction,
	// not a duplicate.
	_, total, err := st.ListTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestIngestDropsInvalidRows(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	rows := []statement.Row{
		{Merchant: "", Date: day(2026, 1, 10), Amount: amt(-5)},
		{Merchant: "No Date", Amount: amt(-5)},
		{Merchant: "No Amount", Date: day(2026, 1, 10)},
		row(day(2026, 1, 10), "Valid Merchant", -5),
	}

	result, err := svc.Ingest(ctx, "mixed.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewCount)
	assert.Equal(t, 0, result.SkippedCount)
}

func TestIngestDropsPreliminaryRows(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	pending := statement.Row{
		Date:     day(2026, 1, 18),
		Merchant: "Varaus K Market Vallila",
		Amount:   amt(-14.30),
	}
	// A booked row keeps the marker prefix but carries a booking date.
	booked := row(day(2026, 1, 18), "Varaus K Market Vallila", -14.30)

	result, err := svc.Ingest(ctx, "pending.csv", "user-1", []statement.Row{pending, booked}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewCount)
}

func TestIngestNoValidRowsFailsWithoutUpload(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	rows := []statement.Row{
		{Merchant: "header line"},
		{Merchant: ""},
	}

	_, err := svc.Ingest(ctx, "empty.csv", "user-1", rows, nil)
	assert.True(t, apperrors.IsValidation(err))

	uploads, err := st.ListUploads(ctx)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestIngestAutoCategorizes(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	entertainment := seedCategory(t, st, "Entertainment")
	require.NoError(t, st.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "netflix",
		CategoryID:      &entertainment.ID,
	}))
	require.NoError(t, st.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "mobilepay",
		IsMultiMerchant: true,
	}))

	rows := []statement.Row{
		row(day(2026, 1, 12), "NETFLIX.COM", -12.99),
		row(day(2026, 1, 13), "MobilePay Jane Doe", -40.00),
		row(day(2026, 1, 14), "Unknown Shop", -7.50),
	}

	result, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NewCount)
	assert.Equal(t, 1, result.CategorizedCount)

	uncategorized, _, err := st.ListTransactions(ctx, store.TransactionFilter{Uncategorized: true})
	require.NoError(t, err)
	assert.Len(t, uncategorized, 2)
}

func TestIngestBackfillsUploadRecord(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	// One row is already in the ledger; the upload's date range must cover
	// only what this run inserts.
	seedTransaction(t, st, day(2026, 1, 3), "Netflix", -12.99, nil)

	rows := []statement.Row{
		row(day(2026, 1, 3), "Netflix", -12.99),
		row(day(2026, 1, 10), "K Market Vallila", -23.50),
		row(day(2026, 1, 15), "Salary Acme Oy", 3200.00),
	}

	result, err := svc.Ingest(ctx, "january.csv", "user-1", rows, nil)
	require.NoError(t, err)

	upload, err := st.GetUpload(ctx, result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "january.csv", upload.FileName)
	assert.Equal(t, "user-1", upload.UploadedBy)
	assert.Equal(t, 2, upload.TransactionCount)
	require.NotNil(t, upload.DateRangeStart)
	require.NotNil(t, upload.DateRangeEnd)
	assert.Equal(t, day(2026, 1, 10), *upload.DateRangeStart)
	assert.Equal(t, day(2026, 1, 15), *upload.DateRangeEnd)
}
