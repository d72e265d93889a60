// Package diag centralizes anomaly reporting for the catalog pipeline.
// Diagnostics are logged and discarded; they never alter control flow and
// nothing reported here crosses the pipeline boundary as a panic.
package diag

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bellebook/catalog/pkg/logging"
)

// Kind classifies a diagnostic event.
type Kind string

const (
	// KindValidation means the overall input collection is malformed
	KindValidation Kind = "VALIDATION_ERROR"

	// KindFilter means a filtering operation itself failed unexpectedly
	KindFilter Kind = "FILTER_ERROR"

	// KindTypeMismatch means an individual field's runtime type disagrees
	// with its expected type; the offending record is excluded, nothing stops
	KindTypeMismatch Kind = "TYPE_MISMATCH"

	// KindAPI is reserved for failures originating from the upstream API
	KindAPI Kind = "API_ERROR"
)

// Event is a structured description of an anomaly encountered while
// validating or filtering records.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind Kind, message, context string, details any) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Message:   message,
		Context:   context,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Reporter logs diagnostic events. A nil Reporter is safe to use and
// discards everything.
type Reporter struct {
	log *logging.Logger
}

// NewReporter creates a Reporter backed by the given logger.
func NewReporter(log *logging.Logger) *Reporter {
	return &Reporter{log: log}
}

// Report logs an event. The kind only changes the wording and level of the
// log line, never control flow. Report itself never panics.
func (r *Reporter) Report(e Event) {
	if r == nil || r.log == nil {
		return
	}

	kv := []any{
		"event_id", e.ID.String(),
		"kind", string(e.Kind),
		"context", e.Context,
		"details", e.Details,
		"timestamp", e.Timestamp,
	}

	switch e.Kind {
	case KindValidation:
		r.log.Error("malformed input collection: "+e.Message, kv...)
	case KindFilter:
		r.log.Error("filter operation failed: "+e.Message, kv...)
	case KindTypeMismatch:
		r.log.Warn("field type mismatch: "+e.Message, kv...)
	case KindAPI:
		r.log.Error("upstream request failed: "+e.Message, kv...)
	default:
		r.log.Warn(e.Message, kv...)
	}
}

// Skip logs an excluded record at low verbosity. Per-record exclusions are
// not diagnostic events.
func (r *Reporter) Skip(context, msg string, keyvals ...any) {
	if r == nil || r.log == nil {
		return
	}

	r.log.Debug(msg, append([]any{"context", context}, keyvals...)...)
}

// DebugSummary emits a human-scannable bundle describing an ownership filter
// run: counts, a sample record's id and owner id representation, and, when a
// non-empty input matched nothing, the likely causes. Pure logging.
func (r *Reporter) DebugSummary(records []any, owner string, matched int, context string) {
	if r == nil || r.log == nil {
		return
	}

	kv := []any{
		"context", context,
		"owner_id", owner,
		"record_count", len(records),
		"matched", matched,
	}

	if len(records) > 0 {
		if m, ok := records[0].(map[string]any); ok {
			kv = append(kv,
				"sample_id", m["id"],
				"sample_owner_id", m["ownerId"],
				"sample_owner_id_type", fmt.Sprintf("%T", m["ownerId"]),
			)
		}
	}

	r.log.Info("ownership filter summary", kv...)

	if matched == 0 && len(records) > 0 {
		r.log.Warn(
			"ownership filter matched no records from a non-empty input; "+
				"likely causes: owner id type mismatch, wrong owner id value, "+
				"or all records owned by another user",
			"context", context,
			"owner_id", owner,
		)
	}
}

// Protect runs fn and converts an error or panic into a reported
// FILTER_ERROR and a zero result. This is the only place where failures are
// turned into no-results. ok=false means "operation could not complete" and
// must be distinguished from an empty result by callers.
func Protect[T any](r *Reporter, context string, fn func() (T, error)) (out T, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			out, ok = zero, false
			r.Report(NewEvent(KindFilter, "panic during filtering", context, fmt.Sprintf("%v", p)))
		}
	}()

	out, err := fn()
	if err != nil {
		var zero T
		r.Report(NewEvent(KindFilter, "filtering returned an error", context, err.Error()))

		return zero, false
	}

	return out, true
}
