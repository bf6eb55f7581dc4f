package sources

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_Unmarshal(t *testing.T) {
	t.Parallel()

	type payload struct {
		ID    FlexString `json:"id"`
		Price FlexString `json:"price"`
	}

	tests := []struct {
		name      string
		input     string
		wantID    string
		wantPrice string
	}{
		{"both strings", `{"id": "12345", "price": "49.99"}`, "12345", "49.99"},
		{"numeric id", `{"id": 12345, "price": "49.99"}`, "12345", "49.99"},
		{"numeric price", `{"id": "sku-1", "price": 49.99}`, "sku-1", "49.99"},
		{"integer price", `{"id": "sku-1", "price": 50}`, "sku-1", "50"},
		{"null fields", `{"id": null, "price": null}`, "", ""},
		{"absent fields", `{}`, "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p payload
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.wantID, p.ID.String())
			assert.Equal(t, tt.wantPrice, p.Price.String())
		})
	}

	var p payload
	assert.Error(t, json.Unmarshal([]byte(`{"id": ["nope"]}`), &p))
}

func TestFlexString_Float(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     FlexString
		want   float64
		wantOK bool
	}{
		{"49.99", 49.99, true},
		{"0.00", 0, true},
		{" 12.5 ", 12.5, true},
		{"", 0, false},
		{"$49.99", 0, false},
		{"N/A", 0, false},
	}

	for _, tt := range tests {
		got, ok := tt.in.Float()
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
