package pricing

import (
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/seatforge/ticketing/internal/model"
)

func timeRef() time.Time {
    return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestComputeGroupPrice_BelowThresholdPassesThrough(t *testing.T) {
    tt := baseTicketType()
    tt.GroupDiscount = &model.GroupDiscountRule{Threshold: 10, Percent: 20}

    unit := decimal.New(2000, -2)
    q, err := ComputeGroupPrice(tt, unit, 9)
    require.NoError(t, err)

    assert.False(t, q.ThresholdApplied)
    assert.Equal(t, int64(18000), q.TotalMinor) // unit * qty exactly
    assert.Equal(t, int64(0), q.DiscountMinor)
    assert.Equal(t, int64(2000), q.PerTicketMinor)
}

func TestComputeGroupPrice_AtThresholdApplies(t *testing.T) {
    tt := baseTicketType()
    tt.GroupDiscount = &model.GroupDiscountRule{Threshold: 10, Percent: 20}

    unit := decimal.New(2000, -2)
    q, err := ComputeGroupPrice(tt, unit, 10)
    require.NoError(t, err)

    assert.True(t, q.ThresholdApplied)
    assert.Equal(t, int64(1600), q.PerTicketMinor)
    assert.Equal(t, int64(16000), q.TotalMinor)
    assert.Equal(t, int64(4000), q.DiscountMinor)
}

func TestComputeGroupPrice_NoRuleConfigured(t *testing.T) {
    unit := decimal.New(1250, -2)
    q, err := ComputeGroupPrice(baseTicketType(), unit, 4)
    require.NoError(t, err)

    assert.False(t, q.ThresholdApplied)
    assert.Equal(t, int64(5000), q.TotalMinor)
}

// The group rule stacks on the time-adjusted unit price: a $20 base
// with 10% fixed discount and a 25% group discount on 4+ tickets
// yields $13.50 per ticket.
func TestComputeGroupPrice_StacksOnTimeRule(t *testing.T) {
    tt := baseTicketType()
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 10}
    tt.GroupDiscount = &model.GroupDiscountRule{Threshold: 4, Percent: 25}

    base, err := ComputePrice(tt, 4, timeRef())
    require.NoError(t, err)
    require.Equal(t, int64(1800), base.UnitPriceMinor)

    q, err := ComputeGroupPrice(tt, base.UnitPrice, 4)
    require.NoError(t, err)

    assert.Equal(t, int64(1350), q.PerTicketMinor)
    assert.Equal(t, int64(5400), q.TotalMinor)
}

func TestComputeGroupPrice_InvalidInput(t *testing.T) {
    _, err := ComputeGroupPrice(nil, decimal.New(100, -2), 1)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)

    _, err = ComputeGroupPrice(baseTicketType(), decimal.Zero, 1)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)

    _, err = ComputeGroupPrice(baseTicketType(), decimal.New(100, -2), 0)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)
}
