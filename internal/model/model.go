package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transaction is one ledger entry. Amount is signed: positive is income,
// negative is an expense. OriginalHash is computed from the original
// date/amount/merchant at insert time and is never recomputed, even after the
// user edits the merchant or category. It is the sole duplicate-detection key.
type Transaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Date         time.Time  `gorm:"index" json:"date"`
	Merchant     string     `gorm:"index" json:"merchant"`
	Amount       float64    `json:"amount"`
	Balance      *float64   `json:"balance,omitempty"`
	CategoryID   *uuid.UUID `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	UploadID     *uuid.UUID `gorm:"type:uuid;index" json:"uploadId,omitempty"`
	OriginalHash string     `gorm:"type:char(64);uniqueIndex" json:"originalHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Category is a spending bucket.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MerchantMapping is a learned or manual rule from merchant pattern to
// category. Matching is case-insensitive substring containment of the pattern
// in the transaction's merchant text. IsMultiMerchant marks patterns that
// cover multiple unrelated real-world merchants; such patterns carry no
// category and always force manual review.
type MerchantMapping struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantPattern string     `gorm:"uniqueIndex" json:"merchantPattern"`
	CategoryID      *uuid.UUID `gorm:"type:uuid" json:"categoryId,omitempty"`
	IsMultiMerchant bool       `json:"isMultiMerchant"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Upload is the provenance record for one batch import. TransactionCount and
// the date range are backfilled once ingestion completes; they cover the rows
// actually inserted, not every row seen in the file.
type Upload struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FileName         string         `json:"fileName"`
	UploadedBy       string         `gorm:"index" json:"uploadedBy"`
	TransactionCount int            `json:"transactionCount"`
	DateRangeStart   *time.Time     `json:"dateRangeStart,omitempty"`
	DateRangeEnd     *time.Time     `json:"dateRangeEnd,omitempty"`
	ParseMeta        datatypes.JSON `json:"parseMeta,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}
