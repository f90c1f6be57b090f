package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hausledger/backend/internal/model"
)

// PostgresStore implements Store on a relational database via GORM. The
// unique index on transactions.original_hash is the authoritative duplicate
// guard; the pipeline's pre-check only avoids noisy constraint errors.
type PostgresStore struct {
	db *gorm.DB
}

// Open connects to Postgres, runs migrations and returns the store.
func Open(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Upload{},
		&model.Transaction{},
		&model.MerchantMapping{},
	); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing GORM connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Create(tx).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateHash
	}
	return err
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *PostgresStore) UpdateTransactionCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("category_id", categoryID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&model.Transaction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike quotes the LIKE metacharacters in a user-supplied query so
// merchant searches match the query text literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (s *PostgresStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*model.Transaction, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.Uncategorized {
		q = q.Where("category_id IS NULL")
	} else if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.MerchantQuery != "" {
		q = q.Where("merchant ILIKE ?", "%"+escapeLike(filter.MerchantQuery)+"%")
	}
	if filter.Start != nil {
		q = q.Where("date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("date < ?", *filter.End)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var txs []*model.Transaction
	err := q.Order("date DESC, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *PostgresStore) ListExpenseTransactions(ctx context.Context) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	err := s.db.WithContext(ctx).
		Where("amount < 0").
		Order("date DESC").
		Find(&txs).Error
	return txs, err
}

func (s *PostgresStore) KnownHashes(ctx context.Context, hashes []string) (map[string]struct{}, error) {
	if len(hashes) == 0 {
		return map[string]struct{}{}, nil
	}
	var found []string
	err := s.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("original_hash IN ?", hashes).
		Pluck("original_hash", &found).Error
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(found))
	for _, h := range found {
		known[h] = struct{}{}
	}
	return known, nil
}

func (s *PostgresStore) LearnMerchantCategory(ctx context.Context, merchant string, categoryID uuid.UUID) (int64, error) {
	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Transaction{}).
			Where("merchant = ? AND category_id IS NULL", merchant).
			Update("category_id", categoryID)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected

		return upsertMapping(tx, &model.MerchantMapping{
			MerchantPattern: merchant,
			CategoryID:      &categoryID,
			IsMultiMerchant: false,
		})
	})
	return updated, err
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *PostgresStore) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *PostgresStore) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).First(&category, "LOWER(name) = LOWER(?)", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	res := s.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"icon":        category.Icon,
			"is_default":  category.IsDefault,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Clear references before the row goes away; nothing is orphaned
		// silently.
		if err := tx.Model(&model.Transaction{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.MerchantMapping{}, "category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := s.db.WithContext(ctx).Order("LOWER(name)").Find(&categories).Error
	return categories, err
}

func (s *PostgresStore) CountDefaultCategories(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Category{}).
		Where("is_default").
		Count(&count).Error
	return count, err
}

func (s *PostgresStore) ListMerchantMappings(ctx context.Context) ([]*model.MerchantMapping, error) {
	var mappings []*model.MerchantMapping
	err := s.db.WithContext(ctx).Order("LOWER(merchant_pattern)").Find(&mappings).Error
	return mappings, err
}

func (s *PostgresStore) GetMerchantMapping(ctx context.Context, pattern string) (*model.MerchantMapping, error) {
	var mapping model.MerchantMapping
	err := s.db.WithContext(ctx).
		First(&mapping, "LOWER(merchant_pattern) = LOWER(?)", pattern).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (s *PostgresStore) UpsertMerchantMapping(ctx context.Context, mapping *model.MerchantMapping) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertMapping(tx, mapping)
	})
}

// upsertMapping updates the mapping row matching the pattern
// case-insensitively, or inserts a fresh one. At most one row exists per
// distinct pattern value.
func upsertMapping(tx *gorm.DB, mapping *model.MerchantMapping) error {
	res := tx.Model(&model.MerchantMapping{}).
		Where("LOWER(merchant_pattern) = LOWER(?)", mapping.MerchantPattern).
		Updates(map[string]any{
			"category_id":       mapping.CategoryID,
			"is_multi_merchant": mapping.IsMultiMerchant,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	return tx.Create(mapping).Error
}

func (s *PostgresStore) DeleteMerchantMapping(ctx context.Context, pattern string) error {
	res := s.db.WithContext(ctx).
		Delete(&model.MerchantMapping{}, "LOWER(merchant_pattern) = LOWER(?)", pattern)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateUpload(ctx context.Context, upload *model.Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(upload).Error
}

func (s *PostgresStore) UpdateUpload(ctx context.Context, upload *model.Upload) error {
	res := s.db.WithContext(ctx).Model(&model.Upload{}).
		Where("id = ?", upload.ID).
		Updates(map[string]any{
			"transaction_count": upload.TransactionCount,
			"date_range_start":  upload.DateRangeStart,
			"date_range_end":    upload.DateRangeEnd,
			"parse_meta":        upload.ParseMeta,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	var upload model.Upload
	err := s.db.WithContext(ctx).First(&upload, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (s *PostgresStore) ListUploads(ctx context.Context) ([]*model.Upload, error) {
	var uploads []*model.Upload
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

func (s *PostgresStore) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Transaction{}, "upload_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Upload{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) CategorySummary(ctx context.Context, start, end time.Time) ([]CategoryTotal, error) {
	var rows []CategoryTotal
	err := s.db.WithContext(ctx).Raw(`
		SELECT category_id, SUM(amount) AS total, COUNT(*) AS count
		FROM transactions
		WHERE date >= ? AND date < ?
		GROUP BY category_id
		ORDER BY total ASC`, start, end).Scan(&rows).Error
	return rows, err
}

func (s *PostgresStore) Totals(ctx context.Context, start, end time.Time) (RangeTotals, error) {
	var totals RangeTotals
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0) AS expenses
		FROM transactions
		WHERE date >= ? AND date < ?`, start, end).Scan(&totals).Error
	return totals, err
}

func (s *PostgresStore) TopMerchants(ctx context.Context, start, end time.Time, limit int) ([]MerchantTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []MerchantTotal
	// Merchants group case-insensitively; the reported name is the casing of
	// the earliest row in the group.
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			(ARRAY_AGG(merchant ORDER BY date ASC, created_at ASC))[1] AS merchant,
			SUM(-amount) AS total,
			COUNT(*) AS count
		FROM transactions
		WHERE amount < 0 AND date >= ? AND date < ?
		GROUP BY LOWER(merchant)
		ORDER BY total DESC, LOWER(merchant) ASC
		LIMIT ?`, start, end, limit).Scan(&rows).Error
	return rows, err
}

func (s *PostgresStore) MerchantStats(ctx context.Context, pattern string, start, end time.Time) (MerchantStats, error) {
	var stats MerchantStats
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(AVG(amount), 0) AS average,
			MIN(date) AS first_date,
			MAX(date) AS last_date
		FROM transactions
		WHERE merchant ILIKE ? AND date >= ? AND date < ?`,
		"%"+escapeLike(pattern)+"%", start, end).Scan(&stats).Error
	return stats, err
}

func (s *PostgresStore) CategoryStats(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (CategoryStats, error) {
	var stats CategoryStats
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(AVG(amount), 0) AS average,
			MIN(date) AS first_date,
			MAX(date) AS last_date,
			COUNT(DISTINCT LOWER(merchant)) AS distinct_merchants
		FROM transactions
		WHERE category_id = ? AND date >= ? AND date < ?`,
		categoryID, start, end).Scan(&stats).Error
	return stats, err
}
