package sale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saori-erp/saori-api/internal/domain/sale"
)

func TestFormatFolio(t *testing.T) {
	assert.Equal(t, "V-000001", sale.FormatFolio(sale.NextTicketNumber(0)))
	assert.Equal(t, "V-000042", sale.FormatFolio(42))
	assert.Equal(t, "V-999999", sale.FormatFolio(999999))
	assert.Equal(t, "V-1000000", sale.FormatFolio(1000000))
}

func TestParseFolio(t *testing.T) {
	n, err := sale.ParseFolio("V-000123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), n)

	n, err = sale.ParseFolio(sale.FormatFolio(1234567))
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), n)

	for _, bad := range []string{"", "V-", "X-000001", "V-abc", "V-000000", "V--1"} {
		_, err := sale.ParseFolio(bad)
		assert.ErrorIs(t, err, sale.ErrInvalidFolio, bad)
	}
}

func TestNextTicketNumber_Monotonico(t *testing.T) {
	prev := int64(0)
	for i := 0; i < 5; i++ {
		next := sale.NextTicketNumber(prev)
		assert.Equal(t, prev+1, next)
		prev = next
	}
}
