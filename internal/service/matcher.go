package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/model"
)

// matchMapping returns the stored mapping whose pattern matches the merchant
// text, or nil. Matching is case-insensitive substring containment. When
// several patterns match, the longest wins, then the lexicographically
// smallest, so scan order over the mapping table never decides a category.
func matchMapping(mappings []*model.MerchantMapping, merchantText string) *model.MerchantMapping {
	haystack := strings.ToLower(merchantText)
	var best *model.MerchantMapping
	var bestPattern string
	for _, m := range mappings {
		pattern := strings.ToLower(m.MerchantPattern)
		if pattern == "" || !strings.Contains(haystack, pattern) {
			continue
		}
		if best == nil ||
			len(pattern) > len(bestPattern) ||
			(len(pattern) == len(bestPattern) && pattern < bestPattern) {
			best = m
			bestPattern = pattern
		}
	}
	return best
}

// resolveCategory maps merchant text to a category via the stored patterns.
// A multi-merchant match always resolves to nil: those patterns cover
// unrelated businesses and force manual review.
func resolveCategory(mappings []*model.MerchantMapping, merchantText string) *uuid.UUID {
	m := matchMapping(mappings, merchantText)
	if m == nil || m.IsMultiMerchant {
		return nil
	}
	return m.CategoryID
}

// ResolveCategory resolves a merchant name against a fresh snapshot of the
// pattern store.
func (s *LedgerService) ResolveCategory(ctx context.Context, merchantText string) (*uuid.UUID, error) {
	mappings, err := s.store.ListMerchantMappings(ctx)
	if err != nil {
		return nil, storeErr("list merchant mappings", err)
	}
	return resolveCategory(mappings, merchantText), nil
}

// isMultiMerchant reports whether the merchant text matches any pattern
// flagged multi-merchant.
func isMultiMerchant(mappings []*model.MerchantMapping, merchantText string) bool {
	haystack := strings.ToLower(merchantText)
	for _, m := range mappings {
		if !m.IsMultiMerchant {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(m.MerchantPattern)) {
			return true
		}
	}
	return false
}
