package filter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/internal/domain"
	"github.com/bellebook/catalog/pkg/logging"
)

// decodeJSON decodes the way the upstream client does, with UseNumber, so
// tests see the same runtime types as production code.
func decodeJSON(t *testing.T, s string) any {
	t.Helper()

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	require.NoError(t, dec.Decode(&v))

	return v
}

func newSpy() (*diag.Reporter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return diag.NewReporter(logging.FromZap(zap.New(core))), logs
}

const validRecordJSON = `{
	"id": 1, "ownerId": 7, "title": "Box braids", "description": "Full head",
	"category": "Hair", "subcategory": "Braiding", "price": 1000,
	"location": "Nairobi", "isMobileService": false, "isActive": true,
	"rating": 4.5, "reviewCount": 12
}`

func TestIsValidRecord(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{name: "nil", in: nil, want: false},
		{name: "scalar", in: 42, want: false},
		{name: "empty object", in: map[string]any{}, want: false},
		{name: "string id", in: decodeJSON(t, `{"id":"x","ownerId":7,"title":"t","description":"d","category":"c"}`), want: false},
		{name: "missing title", in: decodeJSON(t, `{"id":1,"ownerId":7,"description":"d","category":"c"}`), want: false},
		{name: "object ownerId", in: decodeJSON(t, `{"id":1,"ownerId":{},"title":"t","description":"d","category":"c"}`), want: false},
		{name: "non-string subcategory", in: decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c","subcategory":3}`), want: false},
		{name: "well-formed", in: decodeJSON(t, validRecordJSON), want: true},
		{name: "string ownerId", in: decodeJSON(t, `{"id":1,"ownerId":"7","title":"t","description":"d","category":"c"}`), want: true},
		{name: "subcategory absent", in: decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c"}`), want: true},
		{name: "null subcategory", in: decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c","subcategory":null}`), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidRecord(tc.in))
		})
	}
}

func TestDecodeRecord(t *testing.T) {
	rec, ok := DecodeRecord(decodeJSON(t, validRecordJSON))
	require.True(t, ok)

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, domain.FlexID("7"), rec.OwnerID)
	assert.Equal(t, "Box braids", rec.Title)
	assert.Equal(t, "Braiding", rec.Subcategory)
	assert.Equal(t, domain.Float(1000), rec.Price)
	assert.Equal(t, 4.5, rec.Rating)
	assert.Equal(t, 12, rec.ReviewCount)
	assert.True(t, rec.IsActive)
	assert.False(t, rec.IsMobile)

	_, ok = DecodeRecord(decodeJSON(t, `{"id":"x"}`))
	assert.False(t, ok)
}

func TestDecodeRecordPriceFallbacks(t *testing.T) {
	// minPrice is accepted when price is absent
	rec, ok := DecodeRecord(decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c","minPrice":250}`))
	require.True(t, ok)
	assert.Equal(t, domain.Float(250), rec.Price)

	// numeric-string price parses
	rec, ok = DecodeRecord(decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c","price":"500"}`))
	require.True(t, ok)
	assert.Equal(t, domain.Float(500), rec.Price)

	// unparseable price stays invalid, record stays valid
	rec, ok = DecodeRecord(decodeJSON(t, `{"id":1,"ownerId":7,"title":"t","description":"d","category":"c","price":"call us"}`))
	require.True(t, ok)
	assert.False(t, rec.Price.Valid)
}

func TestValidateCollection(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantErr bool
	}{
		{name: "nil", in: nil, wantErr: true},
		{name: "scalar", in: 42, wantErr: true},
		{name: "string", in: "records", wantErr: true},
		{name: "list of objects", in: decodeJSON(t, `[{"id":1}]`), wantErr: false},
		{name: "empty list", in: decodeJSON(t, `[]`), wantErr: false},
		{name: "object", in: decodeJSON(t, `{"data":[]}`), wantErr: false},
		{name: "list with scalar entry", in: decodeJSON(t, `[{"id":1}, 42]`), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev := ValidateCollection(tc.in, "test")

			if tc.wantErr {
				require.NotNil(t, ev)
				assert.Equal(t, diag.KindValidation, ev.Kind)
				assert.Equal(t, "test", ev.Context)
			} else {
				assert.Nil(t, ev)
			}
		})
	}
}

func TestRecordsKeepsValidOnly(t *testing.T) {
	r, logs := newSpy()

	raw := decodeJSON(t, `[
		`+validRecordJSON+`,
		{"garbage": true},
		{"id": "abc", "ownerId": 7, "title": "t", "description": "d", "category": "c"},
		{"id": 2, "ownerId": "8", "title": "Gel nails", "description": "d", "category": "Nails"}
	]`)

	out := Records(r, raw, "test")

	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)

	// wrong-typed id is reported as a type mismatch, missing fields are
	// skipped quietly
	mismatches := logs.FilterField(zap.String("kind", string(diag.KindTypeMismatch)))
	assert.Equal(t, 1, mismatches.Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
}

func TestRecordsMalformedCollection(t *testing.T) {
	r, logs := newSpy()

	out := Records(r, nil, "test")

	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.FilterField(zap.String("kind", string(diag.KindValidation))).Len())
}
