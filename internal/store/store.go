package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist. Services
// translate it into the user-facing not-found taxonomy.
var ErrNotFound = errors.New("not found")

// ErrDuplicateHash is returned when inserting a transaction whose
// original_hash already exists. The unique constraint is the authoritative
// duplicate guard; callers treat this as "skip, already exists", never as a
// defect.
var ErrDuplicateHash = errors.New("transaction with this hash already exists")

// TransactionFilter selects transactions for the paginated listing.
// Uncategorized filters for a nil category and wins over CategoryID.
type TransactionFilter struct {
	CategoryID    *uuid.UUID
	Uncategorized bool
	MerchantQuery string
	Start         *time.Time
	End           *time.Time
	Page          int
	PageSize      int
}

// CategoryTotal is one row of a category summary: signed sum and row count
// per category over a range. CategoryID is nil for uncategorized rows.
type CategoryTotal struct {
	CategoryID *uuid.UUID
	Total      float64
	Count      int64
}

// RangeTotals are the income/expense sums over a date range. Income is the
// sum of positive amounts, Expenses the absolute sum of negative ones.
type RangeTotals struct {
	Income   float64
	Expenses float64
}

// MerchantTotal is one top-merchants ranking entry. Merchant carries the
// first-seen original casing; grouping is case-insensitive.
type MerchantTotal struct {
	Merchant string
	Total    float64
	Count    int64
}

// MerchantStats are detail statistics for one merchant pattern, associated
// by case-insensitive substring match, mirroring categorization matching.
type MerchantStats struct {
	Count     int64
	Total     float64
	Average   float64
	FirstDate *time.Time
	LastDate  *time.Time
}

// CategoryStats are detail statistics for one category over a range.
type CategoryStats struct {
	Count             int64
	Total             float64
	Average           float64
	FirstDate         *time.Time
	LastDate          *time.Time
	DistinctMerchants int64
}

// Store defines the interface for all database operations used by the
// services. Postgres backs production; the in-memory implementation backs
// tests and local development.
type Store interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, tx *model.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*model.Transaction, int64, error)
	ListExpenseTransactions(ctx context.Context) ([]*model.Transaction, error)
	KnownHashes(ctx context.Context, hashes []string) (map[string]struct{}, error)

	// LearnMerchantCategory assigns categoryID to every transaction whose
	// merchant text exactly equals merchant and whose category is still
	// unset, then upserts the merchant mapping, as one atomic unit.
	LearnMerchantCategory(ctx context.Context, merchant string, categoryID uuid.UUID) (int64, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*model.Category, error)
	CountDefaultCategories(ctx context.Context) (int64, error)

	// Merchant mapping operations
	ListMerchantMappings(ctx context.Context) ([]*model.MerchantMapping, error)
	GetMerchantMapping(ctx context.Context, pattern string) (*model.MerchantMapping, error)
	UpsertMerchantMapping(ctx context.Context, mapping *model.MerchantMapping) error
	DeleteMerchantMapping(ctx context.Context, pattern string) error

	// Upload operations
	CreateUpload(ctx context.Context, upload *model.Upload) error
	UpdateUpload(ctx context.Context, upload *model.Upload) error
	GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error)
	ListUploads(ctx context.Context) ([]*model.Upload, error)
	DeleteUpload(ctx context.Context, id uuid.UUID) error

	// Aggregation reads
	CategorySummary(ctx context.Context, start, end time.Time) ([]CategoryTotal, error)
	Totals(ctx context.Context, start, end time.Time) (RangeTotals, error)
	TopMerchants(ctx context.Context, start, end time.Time, limit int) ([]MerchantTotal, error)
	MerchantStats(ctx context.Context, pattern string, start, end time.Time) (MerchantStats, error)
	CategoryStats(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (CategoryStats, error)
}
