package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/model"
)

// MemoryStore implements Store with in-memory storage. It backs tests and
// local development; semantics mirror the Postgres implementation, including
// the duplicate-hash guard and half-open [start, end) date ranges.
type MemoryStore struct {
	mu sync.RWMutex

	transactions map[uuid.UUID]*model.Transaction
	categories   map[uuid.UUID]*model.Category
	mappings     map[uuid.UUID]*model.MerchantMapping
	uploads      map[uuid.UUID]*model.Upload
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[uuid.UUID]*model.Transaction),
		categories:   make(map[uuid.UUID]*model.Category),
		mappings:     make(map[uuid.UUID]*model.MerchantMapping),
		uploads:      make(map[uuid.UUID]*model.Upload),
	}
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.OriginalHash == tx.OriginalHash {
			return ErrDuplicateHash
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) UpdateTransactionCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.CategoryID = categoryID
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*model.Transaction, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Transaction
	query := strings.ToLower(filter.MerchantQuery)
	for _, tx := range s.transactions {
		if filter.Uncategorized {
			if tx.CategoryID != nil {
				continue
			}
		} else if filter.CategoryID != nil {
			if tx.CategoryID == nil || *tx.CategoryID != *filter.CategoryID {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(tx.Merchant), query) {
			continue
		}
		if filter.Start != nil && tx.Date.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && !tx.Date.Before(*filter.End) {
			continue
		}
		cp := *tx
		matched = append(matched, &cp)
	}

	// Newest first, creation time as tiebreak for same-day rows
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) ListExpenseTransactions(ctx context.Context) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []*model.Transaction
	for _, tx := range s.transactions {
		if tx.Amount < 0 {
			cp := *tx
			expenses = append(expenses, &cp)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
	return expenses, nil
}

func (s *MemoryStore) KnownHashes(ctx context.Context, hashes []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := make(map[string]struct{}, len(s.transactions))
	for _, tx := range s.transactions {
		stored[tx.OriginalHash] = struct{}{}
	}
	known := make(map[string]struct{})
	for _, h := range hashes {
		if _, ok := stored[h]; ok {
			known[h] = struct{}{}
		}
	}
	return known, nil
}

func (s *MemoryStore) LearnMerchantCategory(ctx context.Context, merchant string, categoryID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var updated int64
	for _, tx := range s.transactions {
		if tx.Merchant == merchant && tx.CategoryID == nil {
			catID := categoryID
			tx.CategoryID = &catID
			tx.UpdatedAt = now
			updated++
		}
	}

	catID := categoryID
	for _, m := range s.mappings {
		if strings.EqualFold(m.MerchantPattern, merchant) {
			m.CategoryID = &catID
			m.IsMultiMerchant = false
			m.UpdatedAt = now
			return updated, nil
		}
	}
	mapping := &model.MerchantMapping{
		ID:              uuid.New(),
		MerchantPattern: merchant,
		CategoryID:      &catID,
		IsMultiMerchant: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.mappings[mapping.ID] = mapping
	return updated, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *category
	return &cp, nil
}

func (s *MemoryStore) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, category := range s.categories {
		if strings.EqualFold(category.Name, name) {
			cp := *category
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return ErrNotFound
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = time.Now().UTC()
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}

	// References are cleared explicitly, never left dangling.
	now := time.Now().UTC()
	for _, tx := range s.transactions {
		if tx.CategoryID != nil && *tx.CategoryID == id {
			tx.CategoryID = nil
			tx.UpdatedAt = now
		}
	}
	for mid, m := range s.mappings {
		if m.CategoryID != nil && *m.CategoryID == id {
			delete(s.mappings, mid)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []*model.Category
	for _, category := range s.categories {
		cp := *category
		categories = append(categories, &cp)
	}
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, nil
}

func (s *MemoryStore) CountDefaultCategories(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, category := range s.categories {
		if category.IsDefault {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListMerchantMappings(ctx context.Context) ([]*model.MerchantMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mappings []*model.MerchantMapping
	for _, m := range s.mappings {
		cp := *m
		mappings = append(mappings, &cp)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return strings.ToLower(mappings[i].MerchantPattern) < strings.ToLower(mappings[j].MerchantPattern)
	})
	return mappings, nil
}

func (s *MemoryStore) GetMerchantMapping(ctx context.Context, pattern string) (*model.MerchantMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.mappings {
		if strings.EqualFold(m.MerchantPattern, pattern) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertMerchantMapping(ctx context.Context, mapping *model.MerchantMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range s.mappings {
		if strings.EqualFold(existing.MerchantPattern, mapping.MerchantPattern) {
			existing.CategoryID = mapping.CategoryID
			existing.IsMultiMerchant = mapping.IsMultiMerchant
			existing.UpdatedAt = now
			return nil
		}
	}
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now
	cp := *mapping
	s.mappings[mapping.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteMerchantMapping(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.mappings {
		if strings.EqualFold(m.MerchantPattern, pattern) {
			delete(s.mappings, id)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateUpload(ctx context.Context, upload *model.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}
	cp := *upload
	s.uploads[upload.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateUpload(ctx context.Context, upload *model.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uploads[upload.ID]; !ok {
		return ErrNotFound
	}
	cp := *upload
	s.uploads[upload.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, ok := s.uploads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *upload
	return &cp, nil
}

func (s *MemoryStore) ListUploads(ctx context.Context) ([]*model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var uploads []*model.Upload
	for _, upload := range s.uploads {
		cp := *upload
		uploads = append(uploads, &cp)
	}
	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].CreatedAt.After(uploads[j].CreatedAt)
	})
	return uploads, nil
}

func (s *MemoryStore) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uploads[id]; !ok {
		return ErrNotFound
	}
	// Child transactions go with the upload.
	for txID, tx := range s.transactions {
		if tx.UploadID != nil && *tx.UploadID == id {
			delete(s.transactions, txID)
		}
	}
	delete(s.uploads, id)
	return nil
}

func (s *MemoryStore) CategorySummary(ctx context.Context, start, end time.Time) ([]CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		categoryID *uuid.UUID
		total      float64
		count      int64
	}
	buckets := make(map[string]*bucket)
	for _, tx := range s.transactions {
		if !inRange(tx.Date, start, end) {
			continue
		}
		key := ""
		var catID *uuid.UUID
		if tx.CategoryID != nil {
			key = tx.CategoryID.String()
			id := *tx.CategoryID
			catID = &id
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{categoryID: catID}
			buckets[key] = b
		}
		b.total += tx.Amount
		b.count++
	}

	var summary []CategoryTotal
	for _, b := range buckets {
		summary = append(summary, CategoryTotal{CategoryID: b.categoryID, Total: b.total, Count: b.count})
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Total < summary[j].Total
	})
	return summary, nil
}

func (s *MemoryStore) Totals(ctx context.Context, start, end time.Time) (RangeTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals RangeTotals
	for _, tx := range s.transactions {
		if !inRange(tx.Date, start, end) {
			continue
		}
		if tx.Amount > 0 {
			totals.Income += tx.Amount
		} else {
			totals.Expenses += -tx.Amount
		}
	}
	return totals, nil
}

func (s *MemoryStore) TopMerchants(ctx context.Context, start, end time.Time, limit int) ([]MerchantTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		display   string
		firstSeen time.Time
		total     float64
		count     int64
	}
	buckets := make(map[string]*bucket)
	for _, tx := range s.transactions {
		if tx.Amount >= 0 || !inRange(tx.Date, start, end) {
			continue
		}
		key := strings.ToLower(tx.Merchant)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{display: tx.Merchant, firstSeen: tx.Date}
			buckets[key] = b
		} else if tx.Date.Before(b.firstSeen) {
			b.display = tx.Merchant
			b.firstSeen = tx.Date
		}
		b.total += -tx.Amount
		b.count++
	}

	var ranked []MerchantTotal
	for _, b := range buckets {
		ranked = append(ranked, MerchantTotal{Merchant: b.display, Total: b.total, Count: b.count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return strings.ToLower(ranked[i].Merchant) < strings.ToLower(ranked[j].Merchant)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *MemoryStore) MerchantStats(ctx context.Context, pattern string, start, end time.Time) (MerchantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(pattern)
	var stats MerchantStats
	for _, tx := range s.transactions {
		if !inRange(tx.Date, start, end) {
			continue
		}
		if !strings.Contains(strings.ToLower(tx.Merchant), needle) {
			continue
		}
		stats.Count++
		stats.Total += tx.Amount
		d := tx.Date
		if stats.FirstDate == nil || d.Before(*stats.FirstDate) {
			first := d
			stats.FirstDate = &first
		}
		if stats.LastDate == nil || d.After(*stats.LastDate) {
			last := d
			stats.LastDate = &last
		}
	}
	if stats.Count > 0 {
		stats.Average = stats.Total / float64(stats.Count)
	}
	return stats, nil
}

func (s *MemoryStore) CategoryStats(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (CategoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats CategoryStats
	merchants := make(map[string]struct{})
	for _, tx := range s.transactions {
		if tx.CategoryID == nil || *tx.CategoryID != categoryID || !inRange(tx.Date, start, end) {
			continue
		}
		stats.Count++
		stats.Total += tx.Amount
		merchants[strings.ToLower(tx.Merchant)] = struct{}{}
		d := tx.Date
		if stats.FirstDate == nil || d.Before(*stats.FirstDate) {
			first := d
			stats.FirstDate = &first
		}
		if stats.LastDate == nil || d.After(*stats.LastDate) {
			last := d
			stats.LastDate = &last
		}
	}
	if stats.Count > 0 {
		stats.Average = stats.Total / float64(stats.Count)
	}
	stats.DistinctMerchants = int64(len(merchants))
	return stats, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
