package service

import (
	"fmt"
	"time"

	"github.com/hausledger/backend/internal/advisor"
	"github.com/hausledger/backend/internal/store"
)

// LedgerService implements ingestion, categorization, recurring-expense
// detection and the aggregation queries over the transaction ledger.
type LedgerService struct {
	store             store.Store
	suggester         advisor.Suggester
	preliminaryMarker string
	recurring         RecurringConfig
	now               func() time.Time
}

// Config tunes service behaviour. Zero values fall back to defaults.
type Config struct {
	// PreliminaryMarker is the merchant-text prefix banks put on
	// not-yet-booked rows. Such rows are re-sent once confirmed and must
	// not be ingested twice under different identities.
	PreliminaryMarker string
	Recurring         RecurringConfig
	// Suggester backs advisory categorization. Nil means disabled.
	Suggester advisor.Suggester
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewLedgerService creates the service over the given store.
func NewLedgerService(st store.Store, cfg Config) *LedgerService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Suggester == nil {
		cfg.Suggester = advisor.NoopSuggester{}
	}
	cfg.Recurring = cfg.Recurring.withDefaults()
	return &LedgerService{
		store:             st,
		suggester:         cfg.Suggester,
		preliminaryMarker: cfg.PreliminaryMarker,
		recurring:         cfg.Recurring,
		now:               cfg.Now,
	}
}

// storeErr wraps an unexpected store failure with the operation that hit it.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
