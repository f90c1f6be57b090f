package service

import (
	"context"

	"github.com/hausledger/backend/internal/advisor"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/store"
)

const suggestBatchSize = 25

// SuggestCategories asks the advisor for category proposals over the most
// recent uncategorized transactions. Proposals are never applied here; the
// user confirms each one through Categorize.
func (s *LedgerService) SuggestCategories(ctx context.Context) ([]advisor.Suggestion, error) {
	txs, _, err := s.store.ListTransactions(ctx, store.TransactionFilter{
		Uncategorized: true,
		Page:          1,
		PageSize:      suggestBatchSize,
	})
	if err != nil {
		return nil, storeErr("list uncategorized transactions", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", err)
	}

	suggestions, err := s.suggester.Suggest(ctx, txs, categories)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Int("transactions", len(txs)).
		Int("suggestions", len(suggestions)).
		Msg("advisory categorization run")
	return suggestions, nil
}
