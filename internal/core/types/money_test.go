package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundOMR(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.2345", "1.235"},
		{"1.2344", "1.234"},
		{"-1.2345", "-1.235"},
		{"0.0005", "0.001"},
		{"10", "10"},
	}
	for _, tt := range tests {
		got := RoundOMR(MustMoney(tt.in))
		assert.True(t, got.Equal(MustMoney(tt.want)), "RoundOMR(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestBaisaRoundTrip(t *testing.T) {
	b := BaisaFromOMR(MustMoney("12.3456"))
	assert.Equal(t, Baisa(12346), b)
	assert.Equal(t, "12.346", b.OMR().StringFixed(3))
	assert.Equal(t, Baisa(500), BaisaFromOMR(MustMoney("-0.5")).Abs())
}

func TestSumOMR(t *testing.T) {
	got := SumOMR(MustMoney("0.3335"), MustMoney("0.3335"), MustMoney("0.3335"))
	assert.Equal(t, "1.001", got.StringFixed(3))
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(MustMoney("200"), decimal.NewFromInt(15))
	assert.True(t, got.Equal(MustMoney("30")))
}

func TestQuantityJSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`1.5`), &q))
	assert.Equal(t, Quantity(15000), q)

	require.NoError(t, json.Unmarshal([]byte(`"2.00005"`), &q))
	assert.Equal(t, Quantity(20001), q)

	out, err := json.Marshal(NewQuantityFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "3.0000", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
}
