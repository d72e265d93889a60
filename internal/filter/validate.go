// Package filter implements the listing reconciliation pipeline: structural
// validation of raw upstream records, the ownership filter and the display
// filter/sort pipeline. Nothing in this package panics across its boundary.
package filter

import (
	"encoding/json"
	"fmt"

	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/internal/domain"
)

// IsValidRecord reports whether a decoded JSON value has the shape of a
// service record: a non-null object with a numeric id, a string-or-number
// ownerId and string title/description/category fields. subcategory may be
// absent but must be a string when present.
func IsValidRecord(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}

	if !isNumber(m["id"]) {
		return false
	}

	if !isStringOrNumber(m["ownerId"]) {
		return false
	}

	for _, key := range []string{"title", "description", "category"} {
		if _, ok := m[key].(string); !ok {
			return false
		}
	}

	if sub, present := m["subcategory"]; present && sub != nil {
		if _, ok := sub.(string); !ok {
			return false
		}
	}

	return true
}

// DecodeRecord converts a decoded JSON value into a Service. ok is false
// when the value fails IsValidRecord. Optional fields degrade to their
// defaults instead of failing the record.
func DecodeRecord(v any) (domain.Service, bool) {
	if !IsValidRecord(v) {
		return domain.Service{}, false
	}

	m := v.(map[string]any)

	price := domain.ParseFlexFloat(m["price"])
	if !price.Valid {
		// some endpoints send minPrice/maxPrice instead of price
		price = domain.ParseFlexFloat(m["minPrice"])
	}

	rec := domain.Service{
		ID:          asInt64(m["id"]),
		OwnerID:     domain.FlexID(domain.NormalizeID(m["ownerId"])),
		Title:       asString(m["title"]),
		Description: asString(m["description"]),
		Category:    asString(m["category"]),
		Subcategory: asString(m["subcategory"]),
		Price:       price,
		Location:    asString(m["location"]),
		IsMobile:    asBool(m["isMobileService"]),
		IsActive:    asBool(m["isActive"]),
		Rating:      domain.ParseFlexFloat(m["rating"]).Or(0),
		ReviewCount: int(asInt64(m["reviewCount"])),
	}

	return rec, true
}

// ValidateCollection is a cheap shape gate run before any filtering. It
// returns a VALIDATION_ERROR event when the candidate is nil, neither a list
// nor an object, or a list containing non-object entries. Per-record depth
// validation is IsValidRecord's job.
func ValidateCollection(v any, context string) *diag.Event {
	if v == nil {
		e := diag.NewEvent(diag.KindValidation, "collection is nil", context, nil)
		return &e
	}

	switch t := v.(type) {
	case []any:
		for i, item := range t {
			if _, ok := item.(map[string]any); !ok {
				e := diag.NewEvent(
					diag.KindValidation,
					"collection contains non-object entries",
					context,
					fmt.Sprintf("entry %d is %T", i, item),
				)

				return &e
			}
		}

		return nil
	case map[string]any:
		return nil
	default:
		e := diag.NewEvent(
			diag.KindValidation,
			"collection is neither a list nor an object",
			context,
			fmt.Sprintf("%T", v),
		)

		return &e
	}
}

// Records validates a raw decoded collection and returns its structurally
// valid records in input order. Records whose id or ownerId carries a wrong
// runtime type are reported as TYPE_MISMATCH; other malformed entries are
// skipped at low verbosity. A malformed collection yields an empty, non-nil
// result after a VALIDATION_ERROR report.
func Records(r *diag.Reporter, raw any, context string) []domain.Service {
	if e := ValidateCollection(raw, context); e != nil {
		r.Report(*e)
		return []domain.Service{}
	}

	items, ok := raw.([]any)
	if !ok {
		r.Report(diag.NewEvent(diag.KindValidation, "expected a list of records", context, fmt.Sprintf("%T", raw)))
		return []domain.Service{}
	}

	out := make([]domain.Service, 0, len(items))

	for i, item := range items {
		rec, ok := DecodeRecord(item)
		if !ok {
			if ev := idMismatch(item, context, i); ev != nil {
				r.Report(*ev)
			} else {
				r.Skip(context, "skipping malformed record", "index", i)
			}

			continue
		}

		out = append(out, rec)
	}

	return out
}

// idMismatch returns a TYPE_MISMATCH event when an invalid record's id or
// ownerId field is present but of the wrong runtime type, nil otherwise.
func idMismatch(item any, context string, index int) *diag.Event {
	m, ok := item.(map[string]any)
	if !ok {
		return nil
	}

	if id, present := m["id"]; present && !isNumber(id) {
		e := diag.NewEvent(diag.KindTypeMismatch, "record id is not numeric", context,
			fmt.Sprintf("index %d: id is %T", index, id))
		return &e
	}

	if owner, present := m["ownerId"]; present && !isStringOrNumber(owner) {
		e := diag.NewEvent(diag.KindTypeMismatch, "record ownerId is neither string nor number", context,
			fmt.Sprintf("index %d: ownerId is %T", index, owner))
		return &e
	}

	return nil
}

// decodeAll returns every structurally valid record without reporting,
// used by the fallback-to-all policy.
func decodeAll(raw any) []domain.Service {
	items, ok := raw.([]any)
	if !ok {
		return []domain.Service{}
	}

	out := make([]domain.Service, 0, len(items))

	for _, item := range items {
		if rec, ok := DecodeRecord(item); ok {
			out = append(out, rec)
		}
	}

	return out
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	default:
		return false
	}
}

func isStringOrNumber(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}

	return isNumber(v)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	}

	return 0
}
