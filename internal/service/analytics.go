package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/period"
	"github.com/hausledger/backend/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	defaultTopMerchants = 10
	maxTopMerchants     = 50

	maxTrendPeriods = 60
)

// Totals are the income and expense sums over a date range.
type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// TrendPoint is one entry of a spending trend series.
type TrendPoint struct {
	PeriodKey string  `json:"periodKey"`
	Label     string  `json:"label"`
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	Net       float64 `json:"net"`
}

// CategoryTrendPoint is one trend entry split by category.
type CategoryTrendPoint struct {
	PeriodKey  string                `json:"periodKey"`
	Label      string                `json:"label"`
	Categories []store.CategoryTotal `json:"categories"`
}

// PeriodComparison holds the totals of one resolved period alongside its
// key and label.
type PeriodComparison struct {
	PeriodKey string `json:"periodKey"`
	Label     string `json:"label"`
	Totals    Totals `json:"totals"`
}

// PeriodSummary compares a period against the one before it and the same
// period a year earlier.
type PeriodSummary struct {
	Current   PeriodComparison `json:"current"`
	Previous  PeriodComparison `json:"previous"`
	YearAgo   PeriodComparison `json:"yearAgo"`
	IsCurrent bool             `json:"isCurrent"`
}

// CategorySummary returns per-category signed totals and row counts over
// [start, end).
func (s *LedgerService) CategorySummary(ctx context.Context, start, end time.Time) ([]store.CategoryTotal, error) {
	totals, err := s.store.CategorySummary(ctx, start, end)
	if err != nil {
		return nil, storeErr("category summary", err)
	}
	return totals, nil
}

// RangeTotals returns income, expenses and net over [start, end).
func (s *LedgerService) RangeTotals(ctx context.Context, start, end time.Time) (Totals, error) {
	t, err := s.store.Totals(ctx, start, end)
	if err != nil {
		return Totals{}, storeErr("range totals", err)
	}
	return Totals{Income: t.Income, Expenses: t.Expenses, Net: t.Income - t.Expenses}, nil
}

// PeriodTrends returns exactly n consecutive periods ending at endKey,
// oldest first. Periods without transactions appear with zero totals so
// charts never skip a bucket. An empty endKey means the period containing
// now.
func (s *LedgerService) PeriodTrends(ctx context.Context, tf period.Timeframe, endKey string, n int) ([]TrendPoint, error) {
	keys, err := s.trendKeys(tf, endKey, n)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(keys))
	for _, key := range keys {
		r, err := period.Range(tf, key)
		if err != nil {
			return nil, err
		}
		t, err := s.store.Totals(ctx, r.Start, r.End)
		if err != nil {
			return nil, storeErr("period totals", err)
		}
		points = append(points, TrendPoint{
			PeriodKey: key,
			Label:     r.Label,
			Income:    t.Income,
			Expenses:  t.Expenses,
			Net:       t.Income - t.Expenses,
		})
	}
	return points, nil
}

// CategoryPeriodTrends is PeriodTrends split by category.
func (s *LedgerService) CategoryPeriodTrends(ctx context.Context, tf period.Timeframe, endKey string, n int) ([]CategoryTrendPoint, error) {
	keys, err := s.trendKeys(tf, endKey, n)
	if err != nil {
		return nil, err
	}
	points := make([]CategoryTrendPoint, 0, len(keys))
	for _, key := range keys {
		r, err := period.Range(tf, key)
		if err != nil {
			return nil, err
		}
		totals, err := s.store.CategorySummary(ctx, r.Start, r.End)
		if err != nil {
			return nil, storeErr("category summary", err)
		}
		points = append(points, CategoryTrendPoint{
			PeriodKey:  key,
			Label:      r.Label,
			Categories: totals,
		})
	}
	return points, nil
}

func (s *LedgerService) trendKeys(tf period.Timeframe, endKey string, n int) ([]string, error) {
	if n <= 0 || n > maxTrendPeriods {
		return nil, apperrors.Validation("period count must be between 1 and %d, got %d", maxTrendPeriods, n)
	}
	if endKey == "" {
		endKey = period.KeyFor(tf, s.now().UTC())
	}
	return period.Sequence(tf, endKey, n)
}

// TopMerchants ranks merchants by absolute expense total over [start, end).
// Grouping is case-insensitive; the first-seen casing is reported.
func (s *LedgerService) TopMerchants(ctx context.Context, start, end time.Time, limit int) ([]store.MerchantTotal, error) {
	if limit <= 0 {
		limit = defaultTopMerchants
	}
	if limit > maxTopMerchants {
		limit = maxTopMerchants
	}
	merchants, err := s.store.TopMerchants(ctx, start, end, limit)
	if err != nil {
		return nil, storeErr("top merchants", err)
	}
	return merchants, nil
}

// MerchantStats returns detail statistics for transactions matching the
// merchant pattern over [start, end). Association uses the same
// case-insensitive substring rule as categorization.
func (s *LedgerService) MerchantStats(ctx context.Context, pattern string, start, end time.Time) (store.MerchantStats, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return store.MerchantStats{}, apperrors.Validation("merchant pattern must not be empty")
	}
	stats, err := s.store.MerchantStats(ctx, pattern, start, end)
	if err != nil {
		return store.MerchantStats{}, storeErr("merchant stats", err)
	}
	return stats, nil
}

// CategoryStats returns detail statistics for one category over [start, end).
func (s *LedgerService) CategoryStats(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (store.CategoryStats, error) {
	if _, err := s.getCategory(ctx, categoryID); err != nil {
		return store.CategoryStats{}, err
	}
	stats, err := s.store.CategoryStats(ctx, categoryID, start, end)
	if err != nil {
		return store.CategoryStats{}, storeErr("category stats", err)
	}
	return stats, nil
}

// ListTransactions returns one page of the filtered ledger, newest first,
// with the total match count for pagination.
func (s *LedgerService) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*model.Transaction, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	txs, total, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	return txs, total, nil
}

// SummarizePeriod resolves a period key and returns its totals next to the
// previous period and the same period a year earlier. An empty key means
// the period containing now.
func (s *LedgerService) SummarizePeriod(ctx context.Context, tf period.Timeframe, key string) (*PeriodSummary, error) {
	if key == "" {
		key = period.KeyFor(tf, s.now().UTC())
	}
	current, err := period.Range(tf, key)
	if err != nil {
		return nil, err
	}
	previous, err := period.PreviousRange(tf, key)
	if err != nil {
		return nil, err
	}
	yearAgo, err := period.YearAgoRange(tf, key)
	if err != nil {
		return nil, err
	}

	// The year-ago window for a week is shifted by a plain calendar year,
	// so its start is usually not a Monday and no week key names it.
	yearAgoKey := ""
	if tf != period.Week {
		yearAgoKey = period.KeyFor(tf, yearAgo.Start)
	}

	summary := &PeriodSummary{IsCurrent: period.IsCurrent(tf, key, s.now().UTC())}
	for _, part := range []struct {
		dst *PeriodComparison
		key string
		r   period.DateRange
	}{
		{&summary.Current, key, current},
		{&summary.Previous, period.KeyFor(tf, previous.Start), previous},
		{&summary.YearAgo, yearAgoKey, yearAgo},
	} {
		totals, err := s.RangeTotals(ctx, part.r.Start, part.r.End)
		if err != nil {
			return nil, err
		}
		*part.dst = PeriodComparison{
			PeriodKey: part.key,
			Label:     part.r.Label,
			Totals:    totals,
		}
	}
	return summary, nil
}
