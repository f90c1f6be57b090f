package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/model"
	"github.com/hausledger/backend/internal/store"
)

// defaultCategories are seeded into an empty ledger so categorization has
// somewhere to land before the user customizes the taxonomy.
var defaultCategories = []model.Category{
	{Name: "Groceries", Icon: "shopping-cart", IsDefault: true},
	{Name: "Housing", Icon: "home", IsDefault: true},
	{Name: "Utilities", Icon: "zap", IsDefault: true},
	{Name: "Transport", Icon: "car", IsDefault: true},
	{Name: "Dining", Icon: "utensils", IsDefault: true},
	{Name: "Entertainment", Icon: "film", IsDefault: true},
	{Name: "Health", Icon: "heart", IsDefault: true},
	{Name: "Shopping", Icon: "shopping-bag", IsDefault: true},
	{Name: "Subscriptions", Icon: "repeat", IsDefault: true},
	{Name: "Income", Icon: "trending-up", IsDefault: true},
	{Name: "Other", Icon: "more-horizontal", IsDefault: true},
}

// SeedDefaultCategories inserts the default taxonomy when the category table
// is empty. Safe to call on every startup.
func (s *LedgerService) SeedDefaultCategories(ctx context.Context) error {
	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return storeErr("list categories", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range defaultCategories {
		c.ID = uuid.New()
		if err := s.store.CreateCategory(ctx, &c); err != nil {
			return storeErr("seed category", err)
		}
	}
	log := logger.FromContext(ctx)
	log.Info().
		Int("count", len(defaultCategories)).
		Msg("seeded default categories")
	return nil
}

// ListCategories returns all categories.
func (s *LedgerService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

// GetCategory returns one category by id.
func (s *LedgerService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return s.getCategory(ctx, id)
}

// CreateCategory adds a user-defined category. Names are unique.
func (s *LedgerService) CreateCategory(ctx context.Context, name, icon string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("category name must not be empty")
	}
	if existing, err := s.store.GetCategoryByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.Validation("category %q already exists", name)
	}
	category := &model.Category{
		ID:   uuid.New(),
		Name: name,
		Icon: icon,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, storeErr("create category", err)
	}
	return category, nil
}

// UpdateCategory renames a category or changes its icon.
func (s *LedgerService) UpdateCategory(ctx context.Context, id uuid.UUID, name, icon string) (*model.Category, error) {
	category, err := s.getCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("category name must not be empty")
	}
	if existing, err := s.store.GetCategoryByName(ctx, name); err == nil && existing != nil && existing.ID != id {
		return nil, apperrors.Validation("category %q already exists", name)
	}
	category.Name = name
	category.Icon = icon
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, storeErr("update category", err)
	}
	return category, nil
}

// DeleteCategory removes a category. Transactions keep their rows but lose
// the category reference; dependent merchant mappings are removed. The last
// default category cannot be deleted so the seeded taxonomy never vanishes
// entirely.
func (s *LedgerService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.getCategory(ctx, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		defaults, err := s.store.CountDefaultCategories(ctx)
		if err != nil {
			return storeErr("count default categories", err)
		}
		if defaults <= 1 {
			return apperrors.Validation("cannot delete the last default category %q", category.Name)
		}
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("category", id.String())
		}
		return storeErr("delete category", err)
	}
	return nil
}
