package filter

import (
	"fmt"

	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/internal/domain"
)

const ownerContext = "filter.ByOwner"

// OwnerOptions configures ByOwner.
type OwnerOptions struct {
	// Verbose emits a DebugSummary after filtering
	Verbose bool

	// FallbackToAll returns every structurally valid record instead of an
	// empty result when the collection or the owner id is unusable, so a
	// transient validation hiccup does not hide all data
	FallbackToAll bool
}

// ByOwner returns the records owned by owner, tolerant of id type drift
// (string vs numeric owner ids) and of malformed entries mixed into the
// collection. The relative order of records is preserved. An empty owner id
// means "no owner supplied"; the id "0" is a legal owner. Failures never
// propagate: the worst outcome is an empty result or, with FallbackToAll,
// the unfiltered valid records.
func ByOwner(r *diag.Reporter, raw any, owner string, opts OwnerOptions) []domain.Service {
	out, ok := diag.Protect(r, ownerContext, func() ([]domain.Service, error) {
		return byOwner(r, raw, owner, opts), nil
	})
	if !ok {
		if opts.FallbackToAll {
			all, _ := diag.Protect(r, ownerContext, func() ([]domain.Service, error) {
				return decodeAll(raw), nil
			})
			if all != nil {
				return all
			}
		}

		return []domain.Service{}
	}

	return out
}

func byOwner(r *diag.Reporter, raw any, owner string, opts OwnerOptions) []domain.Service {
	if e := ValidateCollection(raw, ownerContext); e != nil {
		r.Report(*e)

		if opts.FallbackToAll {
			return decodeAll(raw)
		}

		return []domain.Service{}
	}

	items, ok := raw.([]any)
	if !ok {
		// a bare object passes the shape gate but cannot be filtered
		r.Report(diag.NewEvent(diag.KindValidation, "expected a list of records", ownerContext, fmt.Sprintf("%T", raw)))
		return []domain.Service{}
	}

	if owner == "" {
		r.Report(diag.NewEvent(diag.KindFilter, "no owner id supplied", ownerContext, nil))

		if opts.FallbackToAll {
			return decodeAll(raw)
		}

		return []domain.Service{}
	}

	matched := make([]domain.Service, 0, len(items))

	for i, item := range items {
		if !IsValidRecord(item) {
			r.Skip(ownerContext, "skipping malformed record", "index", i)
			continue
		}

		rec, _ := DecodeRecord(item)

		if domain.IDsEqual(rec.OwnerID, owner) {
			matched = append(matched, rec)
		}
	}

	if opts.Verbose {
		r.DebugSummary(items, owner, len(matched), ownerContext)
	}

	return matched
}
