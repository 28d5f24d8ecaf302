package fieldmap_test

import (
	"testing"

	"crew-recruitment-backend/internal/fieldmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		in       string
		min, max int
		currency string
	}{
		{"5000-7000", 5000, 7000, ""},
		{"5k-7k", 5000, 7000, ""},
		{"€5000", 5000, 5000, "EUR"},
		{"5000 to 7000 USD", 5000, 7000, "USD"},
		{"£4.5k - 6k", 4500, 6000, "GBP"},
		{"5,500 - 6,500 euros", 5500, 6500, "EUR"},
		{"7000-5000", 5000, 7000, ""},
		{"$8k", 8000, 8000, "USD"},
		{"45 to 60", 45, 60, ""},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r := fieldmap.ParseRange(tc.in)
			require.NotNil(t, r.Min)
			require.NotNil(t, r.Max)
			assert.Equal(t, tc.min, *r.Min)
			assert.Equal(t, tc.max, *r.Max)
			if tc.currency == "" {
				assert.Nil(t, r.Currency)
			} else {
				require.NotNil(t, r.Currency)
				assert.Equal(t, tc.currency, *r.Currency)
			}
		})
	}

	t.Run("Should return all nil for non-numeric input", func(t *testing.T) {
		for _, in := range []string{"", "negotiable", "DOE", "€"} {
			r := fieldmap.ParseRange(in)
			assert.Nil(t, r.Min, in)
			assert.Nil(t, r.Max, in)
			assert.Nil(t, r.Currency, in)
		}
	})
}

func TestParseRangeRejectsOversizedNumbers(t *testing.T) {
	for _, in := range []string{"99999999999999999999999 EUR", "5000-99999999999", "2500000000"} {
		t.Run(in, func(t *testing.T) {
			r := fieldmap.ParseSalary(in)
			assert.Nil(t, r.Min)
			assert.Nil(t, r.Max)
			assert.Nil(t, r.Currency)
		})
	}
}

func TestParseSalaryDefaultsToEUR(t *testing.T) {
	r := fieldmap.ParseSalary("6000")
	require.NotNil(t, r.Currency)
	assert.Equal(t, "EUR", *r.Currency)

	r = fieldmap.ParseSalary("TBC")
	assert.Nil(t, r.Currency)
}

func TestParseYachtSize(t *testing.T) {
	r := fieldmap.ParseYachtSize("40-60m")
	require.NotNil(t, r.Min)
	assert.Equal(t, 40, *r.Min)
	assert.Equal(t, 60, *r.Max)
	assert.Nil(t, r.Currency)

	r = fieldmap.ParseYachtSize("50 meters")
	assert.Equal(t, 50, *r.Min)
	assert.Equal(t, 50, *r.Max)
}

func TestFormatSalaryRoundTrip(t *testing.T) {
	minV, maxV, eur := 5000, 7000, "EUR"
	s := fieldmap.FormatSalary(&minV, &maxV, &eur)
	assert.Equal(t, "5000-7000 EUR", s)

	r := fieldmap.ParseSalary(s)
	assert.Equal(t, minV, *r.Min)
	assert.Equal(t, maxV, *r.Max)
	assert.Equal(t, eur, *r.Currency)

	assert.Equal(t, "", fieldmap.FormatSalary(nil, nil, &eur))
}
