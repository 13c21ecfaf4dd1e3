package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspace/protocoin/models"
)

var proto = models.Symbol{Code: "PROTO", Precision: 4}

func TestAmountArithmetic(t *testing.T) {
	a := models.NewAmount(100, proto)
	b := models.NewAmount(40, proto)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(140), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(60), diff.Amount)
}

func TestAmountSymbolMismatch(t *testing.T) {
	a := models.NewAmount(100, proto)
	other := models.NewAmount(1, models.Symbol{Code: "PROTO", Precision: 2})

	_, err := a.Add(other)
	assert.ErrorIs(t, err, models.ErrPrecisionMismatch)

	_, err = a.Sub(other)
	assert.ErrorIs(t, err, models.ErrPrecisionMismatch)
}

func TestSymbolValid(t *testing.T) {
	cases := []struct {
		sym   models.Symbol
		valid bool
	}{
		{models.Symbol{Code: "PROTO", Precision: 4}, true},
		{models.Symbol{Code: "A", Precision: 0}, true},
		{models.Symbol{Code: "ABCDEFG", Precision: 18}, true},
		{models.Symbol{Code: "", Precision: 4}, false},
		{models.Symbol{Code: "ABCDEFGH", Precision: 4}, false},
		{models.Symbol{Code: "proto", Precision: 4}, false},
		{models.Symbol{Code: "PRO2", Precision: 4}, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.valid, tc.sym.Valid(), "symbol %q", tc.sym.Code)
	}
}

func TestParseSymbol(t *testing.T) {
	sym, err := models.ParseSymbol("4,PROTO")
	require.NoError(t, err)
	assert.Equal(t, proto, sym)
	assert.Equal(t, "4,PROTO", sym.String())

	for _, raw := range []string{"", "PROTO", "x,PROTO", "4,proto", "300,PROTO"} {
		_, err := models.ParseSymbol(raw)
		assert.ErrorIsf(t, err, models.ErrInvalidAsset, "input %q", raw)
	}
}
