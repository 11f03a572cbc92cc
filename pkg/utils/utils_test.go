package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("s3nha-forte")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nha-forte", h)
	assert.True(t, CheckPassword("s3nha-forte", h))
	assert.False(t, CheckPassword("outra", h))
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestIsAmount(t *testing.T) {
	for _, ok := range []string{"0", "10", "10.5", "10.50", "-3.25", " 7.00 "} {
		assert.True(t, IsAmount(ok), ok)
	}
	for _, bad := range []string{"", "abc", "1.234", "1,50", "1e3", "."} {
		assert.False(t, IsAmount(bad), bad)
	}
}

func TestSumAmountsIsExact(t *testing.T) {
	total, err := SumAmounts("0.10", "0.20", "100.05")
	require.NoError(t, err)
	assert.Equal(t, "100.35", FormatAmount(total))

	_, err = SumAmounts("1.00", "x")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(nil))
	assert.Equal(t, "-12.50", FormatAmount(big.NewRat(-25, 2)))
}
