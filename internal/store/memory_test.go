package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausledger/backend/internal/fingerprint"
	"github.com/hausledger/backend/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addTx(t *testing.T, s *MemoryStore, date time.Time, merchant string, amount float64, categoryID *uuid.UUID) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		ID:           uuid.New(),
		Date:         date,
		Merchant:     merchant,
		Amount:       amount,
		CategoryID:   categoryID,
		OriginalHash: fingerprint.Compute(date, amount, merchant),
	}
	require.NoError(t, s.CreateTransaction(context.Background(), tx))
	return tx
}

func TestCreateTransactionDuplicateHash(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	date := day(2026, 1, 10)
	addTx(t, s, date, "Netflix", -12.99, nil)

	dup := &model.Transaction{
		ID:           uuid.New(),
		Date:         date,
		Merchant:     "Netflix",
		Amount:       -12.99,
		OriginalHash: fingerprint.Compute(date, -12.99, "Netflix"),
	}
	err := s.CreateTransaction(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateHash)
}

func TestKnownHashes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx := addTx(t, s, day(2026, 1, 10), "Netflix", -12.99, nil)

	known, err := s.KnownHashes(ctx, []string{tx.OriginalHash, "deadbeef"})
	require.NoError(t, err)
	assert.Len(t, known, 1)
	_, ok := known[tx.OriginalHash]
	assert.True(t, ok)
}

func TestListTransactionsDateRangeHalfOpen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	addTx(t, s, day(2026, 1, 1), "A", -1, nil)
	addTx(t, s, day(2026, 1, 31), "B", -1, nil)
	addTx(t, s, day(2026, 2, 1), "C", -1, nil)

	start := day(2026, 1, 1)
	end := day(2026, 2, 1)
	txs, total, err := s.ListTransactions(ctx, TransactionFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, txs, 2)
	// The end bound is exclusive.
	for _, tx := range txs {
		assert.True(t, tx.Date.Before(end))
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	catID := uuid.New()
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: catID, Name: "Groceries"}))

	addTx(t, s, day(2026, 1, 10), "K Market Vallila", -23.50, &catID)
	addTx(t, s, day(2026, 1, 11), "Netflix", -12.99, nil)

	txs, _, err := s.ListTransactions(ctx, TransactionFilter{CategoryID: &catID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "K Market Vallila", txs[0].Merchant)

	txs, _, err = s.ListTransactions(ctx, TransactionFilter{Uncategorized: true})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Netflix", txs[0].Merchant)

	txs, _, err = s.ListTransactions(ctx, TransactionFilter{MerchantQuery: "market"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "K Market Vallila", txs[0].Merchant)
}

func TestLearnMerchantCategory(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	catID := uuid.New()
	otherCat := uuid.New()
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: catID, Name: "Groceries"}))

	uncategorized := addTx(t, s, day(2026, 1, 3), "K Market Vallila", -15.20, nil)
	manual := addTx(t, s, day(2026, 1, 5), "K Market Vallila", -9.90, &otherCat)
	// Exact match only: a different store of the same chain is untouched.
	other := addTx(t, s, day(2026, 1, 6), "K Market Kamppi", -12.00, nil)

	updated, err := s.LearnMerchantCategory(ctx, "K Market Vallila", catID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	got, _ := s.GetTransaction(ctx, uncategorized.ID)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, catID, *got.CategoryID)

	got, _ = s.GetTransaction(ctx, manual.ID)
	assert.Equal(t, otherCat, *got.CategoryID)

	got, _ = s.GetTransaction(ctx, other.ID)
	assert.Nil(t, got.CategoryID)

	// Mapping was written in the same call.
	m, err := s.GetMerchantMapping(ctx, "K Market Vallila")
	require.NoError(t, err)
	require.NotNil(t, m.CategoryID)
	assert.Equal(t, catID, *m.CategoryID)
}

func TestUpsertMerchantMappingCaseInsensitiveKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	catID := uuid.New()
	require.NoError(t, s.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "Netflix",
		CategoryID:      &catID,
	}))
	require.NoError(t, s.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "NETFLIX",
		IsMultiMerchant: true,
	}))

	mappings, err := s.ListMerchantMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.True(t, mappings[0].IsMultiMerchant)
	assert.Nil(t, mappings[0].CategoryID)
}

func TestDeleteCategoryClearsReferences(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	catID := uuid.New()
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: catID, Name: "Groceries"}))
	tx := addTx(t, s, day(2026, 1, 10), "K Market Vallila", -23.50, &catID)
	require.NoError(t, s.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "k market vallila",
		CategoryID:      &catID,
	}))

	require.NoError(t, s.DeleteCategory(ctx, catID))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	_, err = s.GetMerchantMapping(ctx, "k market vallila")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUploadCascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	upload := &model.Upload{ID: uuid.New(), FileName: "january.csv"}
	require.NoError(t, s.CreateUpload(ctx, upload))

	tx := &model.Transaction{
		ID:           uuid.New(),
		Date:         day(2026, 1, 10),
		Merchant:     "Netflix",
		Amount:       -12.99,
		UploadID:     &upload.ID,
		OriginalHash: fingerprint.Compute(day(2026, 1, 10), -12.99, "Netflix"),
	}
	require.NoError(t, s.CreateTransaction(ctx, tx))

	keeper := addTx(t, s, day(2026, 1, 11), "K Market Vallila", -23.50, nil)

	require.NoError(t, s.DeleteUpload(ctx, upload.ID))

	_, err := s.GetUpload(ctx, upload.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTransaction(ctx, keeper.ID)
	assert.NoError(t, err)
}

func TestTotals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	addTx(t, s, day(2026, 1, 5), "Salary", 3200.00, nil)
	addTx(t, s, day(2026, 1, 10), "Shop", -200.00, nil)
	addTx(t, s, day(2026, 1, 12), "Shop Two", -50.00, nil)

	totals, err := s.Totals(ctx, day(2026, 1, 1), day(2026, 2, 1))
	require.NoError(t, err)
	assert.InDelta(t, 3200.00, totals.Income, 0.001)
	assert.InDelta(t, 250.00, totals.Expenses, 0.001)
}

func TestTopMerchantsExpensesOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	addTx(t, s, day(2026, 1, 5), "Netflix", -12.99, nil)
	addTx(t, s, day(2026, 1, 12), "netflix", -12.99, nil)
	addTx(t, s, day(2026, 1, 15), "Salary", 3200.00, nil)

	merchants, err := s.TopMerchants(ctx, day(2026, 1, 1), day(2026, 2, 1), 10)
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	// Earliest-seen casing wins for display.
	assert.Equal(t, "Netflix", merchants[0].Merchant)
	assert.InDelta(t, 25.98, merchants[0].Total, 0.001)
	assert.EqualValues(t, 2, merchants[0].Count)
}

func TestCategoryStatsDistinctMerchants(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	catID := uuid.New()
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: catID, Name: "Groceries"}))

	addTx(t, s, day(2026, 1, 5), "K Market Vallila", -20.00, &catID)
	addTx(t, s, day(2026, 1, 10), "k market vallila", -10.00, &catID)
	addTx(t, s, day(2026, 1, 12), "Sale Tampere", -6.00, &catID)

	stats, err := s.CategoryStats(ctx, catID, day(2026, 1, 1), day(2026, 2, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Count)
	assert.EqualValues(t, 2, stats.DistinctMerchants)
	assert.InDelta(t, -36.00, stats.Total, 0.001)
	assert.InDelta(t, -12.00, stats.Average, 0.001)
}

func TestMerchantStatsSubstringMatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	addTx(t, s, day(2026, 1, 5), "K Market Vallila", -20.00, nil)
	addTx(t, s, day(2026, 1, 15), "K MARKET Kamppi", -10.00, nil)
	addTx(t, s, day(2026, 1, 10), "Netflix", -12.99, nil)

	stats, err := s.MerchantStats(ctx, "k market", day(2026, 1, 1), day(2026, 2, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Count)
	assert.InDelta(t, -30.00, stats.Total, 0.001)
}
