package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausledger/backend/internal/store"
)

// The pinned clock is 2026-01-20.

func TestDetectUpcomingYearlyCharge(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	subs := seedCategory(t, st, "Subscriptions")
	seedTransaction(t, st, day(2024, 2, 12), "Netflix Annual", -120.00, &subs.ID)
	seedTransaction(t, st, day(2025, 2, 10), "Netflix Annual", -129.00, &subs.ID)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)

	u := upcoming[0]
	assert.Equal(t, "Netflix Annual", u.Merchant)
	assert.Equal(t, day(2026, 2, 10), u.ExpectedDate)
	assert.Equal(t, 21, u.DaysUntil)
	assert.InDelta(t, 124.50, u.ExpectedAmount, 0.001)
	require.NotNil(t, u.CategoryID)
	assert.Equal(t, subs.ID, *u.CategoryID)
}

func TestDetectUpcomingAmountTolerance(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	// Within 20% of the average.
	seedTransaction(t, st, day(2024, 2, 12), "Insurance Oy", -100.00, nil)
	seedTransaction(t, st, day(2025, 2, 10), "Insurance Oy", -118.00, nil)
	// Way outside tolerance.
	seedTransaction(t, st, day(2024, 2, 14), "Gym Nordic", -10.00, nil)
	seedTransaction(t, st, day(2025, 2, 12), "Gym Nordic", -20.00, nil)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Insurance Oy", upcoming[0].Merchant)
}

func TestDetectUpcomingWindowBounds(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	// Pair only 5 months apart: monthly cadence, not yearly.
	seedTransaction(t, st, day(2024, 9, 10), "Spotify", -11.99, nil)
	seedTransaction(t, st, day(2025, 2, 10), "Spotify", -11.99, nil)
	// Pair 20 months apart: too old.
	seedTransaction(t, st, day(2023, 6, 10), "Domain Registrar", -15.00, nil)
	seedTransaction(t, st, day(2025, 2, 10), "Domain Registrar", -15.00, nil)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestDetectUpcomingForwardWindow(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	// Expected date already passed.
	seedTransaction(t, st, day(2024, 1, 5), "Old Annual", -50.00, nil)
	seedTransaction(t, st, day(2025, 1, 4), "Old Annual", -50.00, nil)
	// Expected more than 60 days out.
	seedTransaction(t, st, day(2024, 6, 3), "Far Annual", -50.00, nil)
	seedTransaction(t, st, day(2025, 6, 1), "Far Annual", -50.00, nil)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestDetectUpcomingIgnoresIncomeAndSingles(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	// Income, even if yearly.
	seedTransaction(t, st, day(2024, 2, 12), "Tax Refund", 250.00, nil)
	seedTransaction(t, st, day(2025, 2, 10), "Tax Refund", 250.00, nil)
	// Single occurrence.
	seedTransaction(t, st, day(2025, 2, 11), "One Off Shop", -99.00, nil)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestDetectUpcomingSortedByDaysUntil(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)
	ctx := context.Background()

	seedTransaction(t, st, day(2024, 3, 2), "Later Annual", -60.00, nil)
	seedTransaction(t, st, day(2025, 3, 1), "Later Annual", -60.00, nil)
	seedTransaction(t, st, day(2024, 2, 2), "Sooner Annual", -40.00, nil)
	seedTransaction(t, st, day(2025, 2, 1), "Sooner Annual", -40.00, nil)

	upcoming, err := svc.DetectUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Sooner Annual", upcoming[0].Merchant)
	assert.Equal(t, "Later Annual", upcoming[1].Merchant)
	assert.Less(t, upcoming[0].DaysUntil, upcoming[1].DaysUntil)
}
