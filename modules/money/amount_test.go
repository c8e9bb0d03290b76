package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFloat(t *testing.T, v float64) Amount {
	t.Helper()
	a, err := FromFloat(v)
	require.NoError(t, err)
	return a
}

func TestFromFloatTruncatesToEightDecimals(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Amount(1234567891), mustFloat(t, 12.345678912))
	assert.Equal("12.34567891", mustFloat(t, 12.345678912).String())
	assert.Equal("0.00000001", mustFloat(t, 0.000000019).String())
	assert.Equal(Amount(0), mustFloat(t, 0.000000009))
	assert.Equal("-1.5", mustFloat(t, -1.500000009).String())
}

func TestFromFloatRejectsOutOfRange(t *testing.T) {
	assert := assert.New(t)

	for _, v := range []float64{2e11, 1e12, -2e11, 1e300} {
		_, err := FromFloat(v)
		assert.ErrorIs(err, ErrOutOfRange, "%g", v)
		assert.ErrorIs(err, ErrInvalidAmount, "%g", v)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(v)
		assert.ErrorIs(err, ErrInvalidAmount)
	}

	// the largest whole amount that still fits
	a, err := FromFloat(92233720368)
	require.NoError(t, err)
	assert.Equal("92233720368", a.String())
}

func TestFromDecimalBounds(t *testing.T) {
	assert := assert.New(t)

	a, err := FromDecimal(decimal.New(math.MaxInt64, -Scale))
	require.NoError(t, err)
	assert.Equal(Amount(math.MaxInt64), a)

	_, err = FromDecimal(decimal.New(math.MaxInt64, -Scale).Add(decimal.New(1, -Scale)))
	assert.ErrorIs(err, ErrOutOfRange)

	a, err = FromDecimal(decimal.New(math.MinInt64, -Scale))
	require.NoError(t, err)
	assert.Equal(Amount(math.MinInt64), a)
}

func TestParse(t *testing.T) {
	a, err := Parse(" 5.123456789 ")
	require.NoError(t, err)
	assert.Equal(t, "5.12345678", a.String())

	_, err = Parse("five")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("200000000000")
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPercentTruncates(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0.12345678", mustFloat(t, 12.345678912).Percent(1).String())
	assert.Equal(Amount(0), Amount(99).Percent(1))
	assert.Equal(Amount(1), Amount(100).Percent(1))
	assert.Equal(Amount(-12345678), Amount(-1234567891).Percent(1))
	assert.Equal(Amount(math.MaxInt64/100), Amount(math.MaxInt64).Percent(1))
}

func TestSum(t *testing.T) {
	total, err := Sum(mustFloat(t, 10), mustFloat(t, 2.34567891))
	require.NoError(t, err)
	assert.Equal(t, "12.34567891", total.String())

	total, err = Sum()
	require.NoError(t, err)
	assert.Equal(t, Amount(0), total)

	_, err = Sum(Amount(math.MaxInt64), 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Sum(Amount(math.MinInt64), -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
