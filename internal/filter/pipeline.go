package filter

import (
	"sort"
	"strings"

	"github.com/bellebook/catalog/internal/domain"
)

// Apply derives the listing a user sees from the full record collection and
// their current criteria. Stages run in fixed order: search, location,
// category/subcategory, price range, mobile flag, sort. Pure function of its
// inputs: the input slice is never mutated and reapplying the same criteria
// yields an identical result.
func Apply(records []domain.Service, c domain.Criteria) []domain.Service {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	location := strings.ToLower(strings.TrimSpace(c.Location))

	out := make([]domain.Service, 0, len(records))

	for _, rec := range records {
		if search != "" && !strings.Contains(strings.ToLower(rec.Title), search) {
			continue
		}

		if location != "" && !strings.Contains(strings.ToLower(rec.Location), location) {
			continue
		}

		if !matchesCategory(rec, c.Categories, c.Subcategories) {
			continue
		}

		if !withinPrice(rec.Price, c.MinPrice, c.MaxPrice) {
			continue
		}

		if c.MobileOnly && !rec.IsMobile {
			continue
		}

		out = append(out, rec)
	}

	sortRecords(out, c.Sort)

	return out
}

// matchesCategory implements the OR across the category and subcategory
// sets: a record qualifies when its category equals any selected category or
// its subcategory equals any selected subcategory, so a subcategory match
// alone suffices. Both sets empty means the stage is skipped.
func matchesCategory(rec domain.Service, categories, subcategories []string) bool {
	if len(categories) == 0 && len(subcategories) == 0 {
		return true
	}

	for _, c := range categories {
		if strings.EqualFold(rec.Category, c) {
			return true
		}
	}

	for _, s := range subcategories {
		if strings.EqualFold(rec.Subcategory, s) {
			return true
		}
	}

	return false
}

// withinPrice checks the inclusive price bounds. Records with an unparseable
// price fail any bounded filter. An inverted range (min > max) matches
// nothing rather than failing.
func withinPrice(price domain.FlexFloat, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}

	if !price.Valid {
		return false
	}

	if min != nil && price.Val < *min {
		return false
	}

	if max != nil && price.Val > *max {
		return false
	}

	return true
}

func sortRecords(records []domain.Service, key domain.SortKey) {
	switch key {
	case domain.SortRating:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Rating > records[j].Rating
		})
	case domain.SortPriceAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price.Or(0) < records[j].Price.Or(0)
		})
	case domain.SortPriceDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price.Or(0) > records[j].Price.Or(0)
		})
	default:
		// recommended: preserve the incoming order
	}
}
