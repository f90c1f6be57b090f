package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/model"
)

// RecurringConfig tunes the yearly-recurrence heuristic. These used to be
// literals in the detector; keep the defaults unless source data says
// otherwise.
type RecurringConfig struct {
	// MinMonthsBack/MaxMonthsBack bound the tolerance window around one
	// year when pairing a charge with last year's occurrence.
	MinMonthsBack int
	MaxMonthsBack int
	// AmountTolerance is the allowed relative difference between the two
	// paired amounts.
	AmountTolerance float64
	// ForwardWindowDays limits how far ahead predictions are reported.
	ForwardWindowDays int
}

func (c RecurringConfig) withDefaults() RecurringConfig {
	if c.MinMonthsBack == 0 {
		c.MinMonthsBack = 10
	}
	if c.MaxMonthsBack == 0 {
		c.MaxMonthsBack = 14
	}
	if c.AmountTolerance == 0 {
		c.AmountTolerance = 0.20
	}
	if c.ForwardWindowDays == 0 {
		c.ForwardWindowDays = 60
	}
	return c
}

// UpcomingExpense is one predicted yearly-recurring charge.
type UpcomingExpense struct {
	Merchant       string     `json:"merchant"`
	ExpectedAmount float64    `json:"expectedAmount"`
	ExpectedDate   time.Time  `json:"expectedDate"`
	DaysUntil      int        `json:"daysUntil"`
	CategoryID     *uuid.UUID `json:"categoryId,omitempty"`
}

// DetectUpcoming predicts yearly-recurring expenses due within the forward
// window. A heuristic, not a guarantee: predictions are recomputed fresh on
// every call and nothing is persisted.
func (s *LedgerService) DetectUpcoming(ctx context.Context) ([]UpcomingExpense, error) {
	expenses, err := s.store.ListExpenseTransactions(ctx)
	if err != nil {
		return nil, storeErr("list expense transactions", err)
	}

	groups := make(map[string][]*model.Transaction)
	for _, tx := range expenses {
		key := strings.ToLower(strings.TrimSpace(tx.Merchant))
		groups[key] = append(groups[key], tx)
	}

	now := s.now().UTC()
	var upcoming []UpcomingExpense

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.After(group[j].Date)
		})
		mostRecent := group[0]

		windowStart := mostRecent.Date.AddDate(0, -s.recurring.MaxMonthsBack, 0)
		windowEnd := mostRecent.Date.AddDate(0, -s.recurring.MinMonthsBack, 0)

		// First qualifying older transaction only.
		for _, older := range group[1:] {
			if older.Date.After(windowEnd) || older.Date.Before(windowStart) {
				continue
			}
			recentAbs := math.Abs(mostRecent.Amount)
			olderAbs := math.Abs(older.Amount)
			avgAmount := (recentAbs + olderAbs) / 2
			if avgAmount == 0 || math.Abs(recentAbs-olderAbs) > s.recurring.AmountTolerance*avgAmount {
				break
			}

			expectedDate := mostRecent.Date.AddDate(0, 0, 365)
			daysUntil := int(math.Ceil(expectedDate.Sub(now).Hours() / 24))
			if daysUntil > 0 && daysUntil <= s.recurring.ForwardWindowDays {
				upcoming = append(upcoming, UpcomingExpense{
					Merchant:       mostRecent.Merchant,
					ExpectedAmount: avgAmount,
					ExpectedDate:   expectedDate,
					DaysUntil:      daysUntil,
					CategoryID:     mostRecent.CategoryID,
				})
			}
			break
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].DaysUntil != upcoming[j].DaysUntil {
			return upcoming[i].DaysUntil < upcoming[j].DaysUntil
		}
		return upcoming[i].Merchant < upcoming[j].Merchant
	})
	return upcoming, nil
}
