package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/store"
)

func TestCategorizePropagatesToSameMerchant(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	groceries := seedCategory(t, st, "Groceries")
	other := seedCategory(t, st, "Other")

	target := seedTransaction(t, st, day(2026, 1, 10), "K Market Vallila", -23.50, nil)
	sibling := seedTransaction(t, st, day(2026, 1, 3), "K Market Vallila", -15.20, nil)
	// Already categorized by hand; must not be overwritten.
	manual := seedTransaction(t, st, day(2026, 1, 5), "K Market Vallila", -9.90, &other.ID)
	// Different merchant text entirely.
	unrelated := seedTransaction(t, st, day(2026, 1, 6), "K Market Kamppi", -12.00, nil)

	updated, err := svc.Categorize(ctx, target.ID, groceries.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	for _, tc := range []struct {
		id   uuid.UUID
		want *uuid.UUID
	}{
		{target.ID, &groceries.ID},
		{sibling.ID, &groceries.ID},
		{manual.ID, &other.ID},
		{unrelated.ID, nil},
	} {
		tx, err := st.GetTransaction(ctx, tc.id)
		require.NoError(t, err)
		if tc.want == nil {
			assert.Nil(t, tx.CategoryID)
		} else {
			require.NotNil(t, tx.CategoryID)
			assert.Equal(t, *tc.want, *tx.CategoryID)
		}
	}

	// The rule base learned the exact merchant text.
	m, err := st.GetMerchantMapping(ctx, "K Market Vallila")
	require.NoError(t, err)
	require.NotNil(t, m.CategoryID)
	assert.Equal(t, groceries.ID, *m.CategoryID)
	assert.False(t, m.IsMultiMerchant)
}

func TestCategorizeMultiMerchantUpdatesSingleRow(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	transfers := seedCategory(t, st, "Transfers")
	require.NoError(t, st.UpsertMerchantMapping(ctx, &model.MerchantMapping{
		MerchantPattern: "mobilepay",
		IsMultiMerchant: true,
	}))

	target := seedTransaction(t, st, day(2026, 1, 10), "MobilePay Jane Doe", -40.00, nil)
	sibling := seedTransaction(t, st, day(2026, 1, 11), "MobilePay Jane Doe", -25.00, nil)

	updated, err := svc.Categorize(ctx, target.ID, transfers.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	tx, err := st.GetTransaction(ctx, sibling.ID)
	require.NoError(t, err)
	assert.Nil(t, tx.CategoryID)

	// Nothing was learned.
	_, err = st.GetMerchantMapping(ctx, "MobilePay Jane Doe")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategorizeUnknownIDs(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	category := seedCategory(t, st, "Groceries")
	tx := seedTransaction(t, st, day(2026, 1, 10), "K Market", -5, nil)

	_, err := svc.Categorize(ctx, uuid.New(), category.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Categorize(ctx, tx.ID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetCategoryDoesNotLearn(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	groceries := seedCategory(t, st, "Groceries")
	target := seedTransaction(t, st, day(2026, 1, 10), "K Market Vallila", -23.50, nil)
	sibling := seedTransaction(t, st, day(2026, 1, 3), "K Market Vallila", -15.20, nil)

	require.NoError(t, svc.SetCategory(ctx, target.ID, &groceries.ID))

	tx, err := st.GetTransaction(ctx, sibling.ID)
	require.NoError(t, err)
	assert.Nil(t, tx.CategoryID)

	_, err = st.GetMerchantMapping(ctx, "K Market Vallila")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Clearing works too.
	require.NoError(t, svc.SetCategory(ctx, target.ID, nil))
	tx, err = st.GetTransaction(ctx, target.ID)
	require.NoError(t, err)
	assert.Nil(t, tx.CategoryID)
}

func TestMarkMultiMerchant(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	target := seedTransaction(t, st, day(2026, 1, 10), "MobilePay Jane Doe", -40.00, nil)

	require.NoError(t, svc.MarkMultiMerchant(ctx, target.ID))

	m, err := st.GetMerchantMapping(ctx, "MobilePay Jane Doe")
	require.NoError(t, err)
	assert.True(t, m.IsMultiMerchant)
	assert.Nil(t, m.CategoryID)

	// The triggering row stays uncategorized.
	tx, err := st.GetTransaction(ctx, target.ID)
	require.NoError(t, err)
	assert.Nil(t, tx.CategoryID)

	require.NoError(t, svc.UnmarkMultiMerchant(ctx, target.ID))
	_, err = st.GetMerchantMapping(ctx, "MobilePay Jane Doe")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Unmarking twice is a not-found error.
	err = svc.UnmarkMultiMerchant(ctx, target.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
