package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/fingerprint"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/statement"
	"github.com/hausledger/backend/internal/store"
)

// IngestResult reports one ingestion run. SkippedCount covers rows already
// present in the ledger; silently dropped header/footer and preliminary rows
// are counted nowhere.
type IngestResult struct {
	UploadID         uuid.UUID `json:"uploadId"`
	NewCount         int       `json:"newCount"`
	SkippedCount     int       `json:"skippedCount"`
	CategorizedCount int       `json:"categorizedCount"`
}

// Ingest turns statement rows into ledger entries. Re-running the same file
// is safe: the second run inserts nothing and reports every valid row as
// skipped. The unique constraint on the original hash is the real duplicate
// guard; the pre-check only keeps constraint errors out of the common path.
func (s *LedgerService) Ingest(ctx context.Context, fileName, uploadedBy string, rows []statement.Row, parseMeta datatypes.JSON) (*IngestResult, error) {
	valid := s.filterRows(rows)
	if len(valid) == 0 {
		return nil, apperrors.Validation("statement %q contains no valid transaction rows", fileName)
	}

	hashes := make([]string, len(valid))
	for i, row := range valid {
		hashes[i] = fingerprint.Compute(row.Date, *row.Amount, row.Merchant)
	}
	known, err := s.store.KnownHashes(ctx, hashes)
	if err != nil {
		return nil, storeErr("look up known hashes", err)
	}

	mappings, err := s.store.ListMerchantMappings(ctx)
	if err != nil {
		return nil, storeErr("list merchant mappings", err)
	}

	upload := &model.Upload{
		ID:         uuid.New(),
		FileName:   fileName,
		UploadedBy: uploadedBy,
		ParseMeta:  parseMeta,
	}
	if err := s.store.CreateUpload(ctx, upload); err != nil {
		return nil, storeErr("create upload", err)
	}

	result := &IngestResult{UploadID: upload.ID}
	var rangeStart, rangeEnd *time.Time

	for i, row := range valid {
		hash := hashes[i]
		if _, dup := known[hash]; dup {
			result.SkippedCount++
			continue
		}

		categoryID := resolveCategory(mappings, row.Merchant)

		uploadID := upload.ID
		tx := &model.Transaction{
			ID:           uuid.New(),
			Date:         row.Date,
			Merchant:     row.Merchant,
			Amount:       *row.Amount,
			Balance:      row.Balance,
			CategoryID:   categoryID,
			UploadID:     &uploadID,
			OriginalHash: hash,
		}
		if err := s.store.CreateTransaction(ctx, tx); err != nil {
			if errors.Is(err, store.ErrDuplicateHash) {
				// Lost the race against a concurrent run, or the file
				// repeats the row. Same outcome either way.
				result.SkippedCount++
				known[hash] = struct{}{}
				continue
			}
			return nil, storeErr("insert transaction", err)
		}
		known[hash] = struct{}{}
		result.NewCount++
		if categoryID != nil {
			result.CategorizedCount++
		}

		// The upload's date range covers inserted rows only.
		d := row.Date
		if rangeStart == nil || d.Before(*rangeStart) {
			start := d
			rangeStart = &start
		}
		if rangeEnd == nil || d.After(*rangeEnd) {
			end := d
			rangeEnd = &end
		}
	}

	upload.TransactionCount = result.NewCount
	upload.DateRangeStart = rangeStart
	upload.DateRangeEnd = rangeEnd
	if err := s.store.UpdateUpload(ctx, upload); err != nil {
		return nil, storeErr("backfill upload", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("file", fileName).
		Str("uploadId", upload.ID.String()).
		Int("new", result.NewCount).
		Int("skipped", result.SkippedCount).
		Int("categorized", result.CategorizedCount).
		Msg("statement ingested")

	return result, nil
}

// filterRows drops rows that cannot become ledger entries: header and footer
// lines without merchant, date or amount, and preliminary rows the bank will
// re-send once booked.
func (s *LedgerService) filterRows(rows []statement.Row) []statement.Row {
	var valid []statement.Row
	for _, row := range rows {
		merchant := strings.TrimSpace(row.Merchant)
		if merchant == "" || row.Date.IsZero() || row.Amount == nil {
			continue
		}
		if s.preliminaryMarker != "" &&
			strings.HasPrefix(merchant, s.preliminaryMarker) &&
			row.BookingDate == nil {
			continue
		}
		row.Merchant = merchant
		valid = append(valid, row)
	}
	return valid
}
