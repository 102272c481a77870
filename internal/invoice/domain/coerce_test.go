package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"12", 12},
		{" 12.5 ", 12.5},
		{"12abc", 12},
		{"1,000", 1},
		{".5", 0.5},
		{"5.", 5},
		{"-3", -3},
		{"+4", 4},
		{"1e3", 1000},
		{"1e", 1},
		{"2E-1", 0.2},
		{"NaN", 0},
		{"Infinity", 0},
		{"1e400", 0},
		{"-", 0},
		{".", 0},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, ParseAmount(tc.in), "ParseAmount(%q)", tc.in)
	}
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 0.0, Coerce(nil))
	assert.Equal(t, 0.0, Coerce(true))
	assert.Equal(t, 0.0, Coerce(math.NaN()))
	assert.Equal(t, 0.0, Coerce(math.Inf(1)))
	assert.Equal(t, 7.0, Coerce(7))
	assert.Equal(t, 2.5, Coerce("2.5"))
	assert.Equal(t, 3.0, Coerce(json.Number("3")))
	assert.Equal(t, 0.0, Coerce([]int{1}))
}

func TestAmountDecodesNumberStringAndNull(t *testing.T) {
	var row struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
		E Amount `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a":1500.5,"b":"2100.00","c":null,"d":"n/a","e":true}`), &row)
	require.NoError(t, err)

	assert.Equal(t, Amount(1500.5), row.A)
	assert.Equal(t, Amount(2100), row.B)
	assert.Equal(t, Amount(0), row.C)
	assert.Equal(t, Amount(0), row.D)
	assert.Equal(t, Amount(0), row.E)
}

func TestAmountEncodesAsNumber(t *testing.T) {
	out, err := json.Marshal(struct {
		V Amount `json:"v"`
	}{V: 2100})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2100}`, string(out))
}
