package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/store"
)

// Categorize assigns a category to a transaction and teaches the rule base.
// For a normal merchant the category propagates to every still-uncategorized
// transaction with exactly the same merchant text, and the merchant mapping
// is upserted so future imports categorize automatically. Rows the user
// already categorized by hand are never overwritten. For a multi-merchant
// pattern only this one transaction changes and nothing is learned.
// Returns the number of transactions updated.
func (s *LedgerService) Categorize(ctx context.Context, transactionID, categoryID uuid.UUID) (int64, error) {
	if _, err := s.getCategory(ctx, categoryID); err != nil {
		return 0, err
	}
	tx, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return 0, err
	}

	mappings, err := s.store.ListMerchantMappings(ctx)
	if err != nil {
		return 0, storeErr("list merchant mappings", err)
	}

	if isMultiMerchant(mappings, tx.Merchant) {
		catID := categoryID
		if err := s.store.UpdateTransactionCategory(ctx, transactionID, &catID); err != nil {
			return 0, storeErr("update transaction category", err)
		}
		return 1, nil
	}

	catID := categoryID
	if err := s.store.UpdateTransactionCategory(ctx, transactionID, &catID); err != nil {
		return 0, storeErr("update transaction category", err)
	}
	propagated, err := s.store.LearnMerchantCategory(ctx, tx.Merchant, categoryID)
	if err != nil {
		return 1, storeErr("learn merchant category", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("merchant", tx.Merchant).
		Str("categoryId", categoryID.String()).
		Int64("propagated", propagated).
		Msg("merchant category learned")

	return propagated + 1, nil
}

// SetCategory sets or clears the category on exactly one transaction. It
// never touches the mapping store and never propagates; one-off corrections
// must not retrain the rule base.
func (s *LedgerService) SetCategory(ctx context.Context, transactionID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.getCategory(ctx, *categoryID); err != nil {
			return err
		}
	}
	if _, err := s.getTransaction(ctx, transactionID); err != nil {
		return err
	}
	if err := s.store.UpdateTransactionCategory(ctx, transactionID, categoryID); err != nil {
		return storeErr("update transaction category", err)
	}
	return nil
}

// MarkMultiMerchant flags the transaction's exact merchant text as covering
// multiple unrelated businesses. Only future matches are affected; the
// triggering transaction stays uncategorized until the user picks a category
// for it individually.
func (s *LedgerService) MarkMultiMerchant(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	mapping := &model.MerchantMapping{
		MerchantPattern: tx.Merchant,
		CategoryID:      nil,
		IsMultiMerchant: true,
	}
	if err := s.store.UpsertMerchantMapping(ctx, mapping); err != nil {
		return storeErr("upsert merchant mapping", err)
	}
	return nil
}

// UnmarkMultiMerchant removes the mapping for the transaction's merchant
// entirely, so the next categorization attempt starts fresh.
func (s *LedgerService) UnmarkMultiMerchant(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	err = s.store.DeleteMerchantMapping(ctx, tx.Merchant)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("merchant mapping", tx.Merchant)
	}
	if err != nil {
		return storeErr("delete merchant mapping", err)
	}
	return nil
}

func (s *LedgerService) getTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("transaction", id.String())
	}
	if err != nil {
		return nil, storeErr("get transaction", err)
	}
	return tx, nil
}

func (s *LedgerService) getCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("category", id.String())
	}
	if err != nil {
		return nil, storeErr("get category", err)
	}
	return category, nil
}
