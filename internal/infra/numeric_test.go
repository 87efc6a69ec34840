package infra

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericToDecimal_Fraction(t *testing.T) {
	// 15 * 10^-1 = 1.5
	n := pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true}
	d, err := NumericToDecimal(n)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1.5")))
}

func TestNumericToDecimal_PositiveExponent(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(2), Exp: 2, Valid: true}
	d, err := NumericToDecimal(n)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(200)))
}

func TestNumericToDecimal_NilIntIsZero(t *testing.T) {
	d, err := NumericToDecimal(pgtype.Numeric{Valid: true})
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestNumericToDecimal_Invalid(t *testing.T) {
	tests := []struct {
		name string
		n    pgtype.Numeric
		msg  string
	}{
		{"null", pgtype.Numeric{Valid: false}, "NULL"},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, "NaN"},
		{"infinity", pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, "infinite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NumericToDecimal(tt.n)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDecimalToNumeric_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "2.5", "0.0001", "1234.5678"} {
		t.Run(s, func(t *testing.T) {
			in := decimal.RequireFromString(s)
			n := DecimalToNumeric(in)
			assert.True(t, n.Valid)
			out, err := NumericToDecimal(n)
			require.NoError(t, err)
			assert.True(t, in.Equal(out), "%s != %s", in, out)
		})
	}
}
