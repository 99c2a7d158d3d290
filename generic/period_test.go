package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
)

func TestNewPayPeriod_RejectsMonthOutOfRange(t *testing.T) {
	for _, month := range []int{0, 13, -1} {
		_, err := generic.NewPayPeriod(2025, month)
		assert.ErrorIs(t, err, generic.ErrInvalidPeriod, "month %d", month)
		assert.True(t, generic.IsClientError(err))
	}

	p, err := generic.NewPayPeriod(2025, 2)
	require.NoError(t, err)
	assert.Equal(t, time.February, p.Month)
	assert.Equal(t, 28, p.DaysInMonth())
}

func TestPayPeriod_Navigation(t *testing.T) {
	dec := generic.MustPayPeriod(2024, 12)

	assert.Equal(t, generic.MustPayPeriod(2025, 1), dec.Next())
	assert.Equal(t, generic.MustPayPeriod(2024, 11), dec.Previous())
	assert.True(t, dec.Before(dec.Next()))
	assert.True(t, dec.Next().After(dec))
	assert.Equal(t, 29, generic.MustPayPeriod(2024, 2).DaysInMonth())
	assert.Equal(t, "2024-12", dec.String())
	assert.Equal(t, "202412", dec.Compact())
}

func TestPayPeriod_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Period generic.PayPeriod `json:"period"`
	}

	b, err := json.Marshal(wrapper{Period: generic.MustPayPeriod(2025, 3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2025-03"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"period":"2026-11"}`), &w))
	assert.Equal(t, generic.MustPayPeriod(2026, 11), w.Period)

	assert.Error(t, json.Unmarshal([]byte(`{"period":"2026-13"}`), &w))
}

func TestWholeYearsBetween(t *testing.T) {
	hire := generic.Date(2020, time.March, 1)

	assert.Equal(t, 0, generic.WholeYearsBetween(hire, generic.Date(2021, time.February, 1)))
	assert.Equal(t, 5, generic.WholeYearsBetween(hire, generic.Date(2025, time.March, 1)))
	// Not yet hired clamps to zero.
	assert.Equal(t, 0, generic.WholeYearsBetween(generic.Date(2026, time.January, 1), hire))
}

func TestRoundCurrency_HalfUp(t *testing.T) {
	assert.Equal(t, "2700.01", generic.RoundCurrency(decimal.RequireFromString("2700.005")).StringFixed(2))
	assert.Equal(t, "2700.00", generic.RoundCurrency(decimal.RequireFromString("2700.0049")).StringFixed(2))
	assert.Equal(t, "1234", generic.TruncateCurrency(decimal.RequireFromString("1234.99")).String())
}
