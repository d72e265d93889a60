package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "42", want: "42"},
		{name: "string with spaces", in: " 42 ", want: "42"},
		{name: "zero string", in: "0", want: "0"},
		{name: "int", in: 42, want: "42"},
		{name: "int zero", in: 0, want: "0"},
		{name: "float64 integral", in: float64(42), want: "42"},
		{name: "float64 fractional", in: 42.5, want: "42.5"},
		{name: "json number integral", in: json.Number("42"), want: "42"},
		{name: "json number with exponent", in: json.Number("4.2e1"), want: "42"},
		{name: "non-scalar", in: map[string]any{"id": 1}, want: ""},
		{name: "bool", in: true, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeID(tc.in))
		})
	}
}

func TestIDsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "string vs number", a: "42", b: 42, want: true},
		{name: "number vs string", a: 42, b: "42", want: true},
		{name: "json number vs string", a: json.Number("7"), b: "7", want: true},
		{name: "zero id string vs number", a: "0", b: 0, want: true},
		{name: "different values", a: "42", b: 43, want: false},
		{name: "empty never matches", a: "", b: "", want: false},
		{name: "nil never matches", a: nil, b: nil, want: false},
		{name: "empty vs real", a: "", b: "42", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IDsEqual(tc.a, tc.b))
		})
	}
}

func TestFlexIDUnmarshal(t *testing.T) {
	var payload struct {
		OwnerID FlexID `json:"ownerId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"ownerId": 42}`), &payload))
	assert.Equal(t, FlexID("42"), payload.OwnerID)

	require.NoError(t, json.Unmarshal([]byte(`{"ownerId": "42"}`), &payload))
	assert.Equal(t, FlexID("42"), payload.OwnerID)

	require.NoError(t, json.Unmarshal([]byte(`{"ownerId": null}`), &payload))
	assert.True(t, payload.OwnerID.IsZero())

	// Marshals back as the canonical string form
	payload.OwnerID = "7"
	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ownerId":"7"}`, string(out))
}

func TestFlexFloat(t *testing.T) {
	assert.Equal(t, Float(150), ParseFlexFloat(json.Number("150")))
	assert.Equal(t, Float(150.5), ParseFlexFloat("150.5"))
	assert.Equal(t, Float(150), ParseFlexFloat(150))
	assert.False(t, ParseFlexFloat("abc").Valid)
	assert.False(t, ParseFlexFloat(nil).Valid)
	assert.Equal(t, float64(0), ParseFlexFloat("abc").Or(0))
	assert.Equal(t, 99.0, Float(99).Or(0))

	var v FlexFloat
	require.NoError(t, json.Unmarshal([]byte(`"250"`), &v))
	assert.Equal(t, Float(250), v)

	require.NoError(t, json.Unmarshal([]byte(`"free"`), &v))
	assert.False(t, v.Valid)

	out, err := json.Marshal(Float(250))
	require.NoError(t, err)
	assert.Equal(t, "250", string(out))

	out, err = json.Marshal(FlexFloat{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
