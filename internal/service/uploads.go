package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/store"
)

// ListUploads returns all upload records, newest first.
func (s *LedgerService) ListUploads(ctx context.Context) ([]*model.Upload, error) {
	uploads, err := s.store.ListUploads(ctx)
	if err != nil {
		return nil, storeErr("list uploads", err)
	}
	return uploads, nil
}

// GetUpload returns one upload record.
func (s *LedgerService) GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	upload, err := s.store.GetUpload(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("upload", id.String())
		}
		return nil, storeErr("get upload", err)
	}
	return upload, nil
}

// DeleteUpload removes an upload and every transaction ingested from it.
// Undoes a bad import in one call.
func (s *LedgerService) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUpload(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUpload(ctx, id); err != nil {
		return storeErr("delete upload", err)
	}
	return nil
}

// GetTransaction returns one ledger entry.
func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return s.getTransaction(ctx, id)
}

// DeleteTransaction removes one ledger entry. Its hash remains free, so a
// later re-ingestion of the same statement would restore the row.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getTransaction(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return storeErr("delete transaction", err)
	}
	return nil
}
