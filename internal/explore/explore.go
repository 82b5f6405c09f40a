// Package explore filters, sorts and pages raw line items for browsing and export.
package explore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"wrapped/internal/core"
)

// DefaultPerPage is the page size used when a query does not set one.
const DefaultPerPage = 20

// SortField names a sortable line item column.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortStoreName SortField = "storeName"
	SortItem      SortField = "item"
	SortCategory  SortField = "category"
	SortSubtotal  SortField = "subtotal"
	SortQuantity  SortField = "quantity"
)

// SortFields lists every accepted sort field.
var SortFields = []SortField{SortCreatedAt, SortStoreName, SortItem, SortCategory, SortSubtotal, SortQuantity}

// ParseSortField accepts a field name case-insensitively. Empty means SortCreatedAt.
func ParseSortField(s string) (SortField, error) {
	if strings.TrimSpace(s) == "" {
		return SortCreatedAt, nil
	}
	for _, f := range SortFields {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q (want one of %v)", s, SortFields)
}

// Query selects and orders line items. Store and Category match exactly;
// Search matches item, store or category case-insensitively.
type Query struct {
	Search     string
	Store      string
	Category   string
	SortField  SortField
	Descending bool
	Page       int
	PerPage    int
}

// DefaultQuery returns the newest-first listing of the first page.
func DefaultQuery() Query {
	return Query{SortField: SortCreatedAt, Descending: true, Page: 1, PerPage: DefaultPerPage}
}

// Result is one page of matching items.
type Result struct {
	Items   []core.LineItem `json:"items"`
	Total   int             `json:"total"`
	Matched int             `json:"matched"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
}

// Filter returns the items matching q in q's sort order, without paging.
func Filter(items []core.LineItem, q Query) []core.LineItem {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]core.LineItem, 0, len(items))
	for _, it := range items {
		if q.Store != "" && it.StoreName != q.Store {
			continue
		}
		if q.Category != "" && it.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(it.Item), needle) &&
			!strings.Contains(strings.ToLower(it.StoreName), needle) &&
			!strings.Contains(strings.ToLower(it.Category), needle) {
			continue
		}
		out = append(out, it)
	}

	less := comparator(q.SortField)
	slices.SortStableFunc(out, func(a, b core.LineItem) int {
		if q.Descending {
			return less(b, a)
		}
		return less(a, b)
	})
	return out
}

func comparator(f SortField) func(a, b core.LineItem) int {
	fold := func(get func(core.LineItem) string) func(a, b core.LineItem) int {
		return func(a, b core.LineItem) int {
			return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
		}
	}
	switch f {
	case SortStoreName:
		return fold(func(it core.LineItem) string { return it.StoreName })
	case SortItem:
		return fold(func(it core.LineItem) string { return it.Item })
	case SortCategory:
		return fold(func(it core.LineItem) string { return it.Category })
	case SortSubtotal:
		return func(a, b core.LineItem) int { return a.Subtotal.Cmp(b.Subtotal) }
	case SortQuantity:
		return func(a, b core.LineItem) int { return cmp.Compare(a.Quantity, b.Quantity) }
	default:
		return func(a, b core.LineItem) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// Run filters, sorts and pages items. Out-of-range pages are clamped.
func Run(items []core.LineItem, q Query) Result {
	matched := Filter(items, q)
	per := q.PerPage
	if per <= 0 {
		per = DefaultPerPage
	}
	pages := (len(matched) + per - 1) / per
	page := min(max(q.Page, 1), max(pages, 1))

	start := min((page-1)*per, len(matched))
	end := min(start+per, len(matched))
	return Result{
		Items:   matched[start:end],
		Total:   len(items),
		Matched: len(matched),
		Page:    page,
		Pages:   pages,
	}
}

// Stores lists the distinct store names, sorted.
func Stores(items []core.LineItem) []string {
	return distinct(items, func(it core.LineItem) string { return it.StoreName })
}

// Categories lists the distinct categories, sorted.
func Categories(items []core.LineItem) []string {
	return distinct(items, func(it core.LineItem) string { return it.Category })
}

func distinct(items []core.LineItem, key func(core.LineItem) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
