package pricing

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/seatforge/ticketing/internal/model"
)

func baseTicketType() *model.TicketType {
    return &model.TicketType{
        ID:             "tt-1",
        EventID:        "evt-1",
        BasePriceMinor: 2000, // $20.00
        MinorUnit:      2,
        Tier:           model.TierBasic,
    }
}

func TestComputePrice_BasePrice(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    q, err := ComputePrice(baseTicketType(), 2, now)
    require.NoError(t, err)

    assert.Equal(t, RuleBase, q.AppliedRule)
    assert.Equal(t, int64(2000), q.UnitPriceMinor)
    assert.Equal(t, int64(4000), q.TotalMinor)
}

func TestComputePrice_EarlyBirdWindow(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.EarlyBird = &model.EarlyBirdRule{
        WindowStart: now.Add(-24 * time.Hour),
        WindowEnd:   now.Add(24 * time.Hour),
        Percent:     25,
    }

    q, err := ComputePrice(tt, 1, now)
    require.NoError(t, err)

    assert.Equal(t, RuleEarlyBird, q.AppliedRule)
    assert.Equal(t, int64(1500), q.UnitPriceMinor)
}

// The $20 / expired-early-bird / 10%-fixed-discount scenario: with the
// window closed the fixed discount must take over, yielding $18.00 per
// ticket and $54.00 for three.
func TestComputePrice_ExpiredEarlyBirdFallsThroughToFixed(t *testing.T) {
    now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.EarlyBird = &model.EarlyBirdRule{
        WindowStart: now.Add(-72 * time.Hour),
        WindowEnd:   now.Add(-24 * time.Hour), // ended yesterday
        Percent:     25,
    }
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 10}

    q, err := ComputePrice(tt, 3, now)
    require.NoError(t, err)

    assert.Equal(t, RuleFixedDiscount, q.AppliedRule)
    assert.Equal(t, int64(1800), q.UnitPriceMinor)
    assert.Equal(t, int64(5400), q.TotalMinor)
}

func TestComputePrice_LastMinuteSurcharge(t *testing.T) {
    now := time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.LastMinute = &model.LastMinuteRule{
        WindowStart: now.Add(-time.Hour),
        Percent:     15,
    }
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 10}

    q, err := ComputePrice(tt, 1, now)
    require.NoError(t, err)

    // Surcharge outranks the fixed discount once its window opens.
    assert.Equal(t, RuleLastMinute, q.AppliedRule)
    assert.Equal(t, int64(2300), q.UnitPriceMinor)
}

// Early-bird, last-minute and fixed rules are mutually exclusive: with
// all three configured and the early-bird window open, only the
// early-bird discount may fire.
func TestComputePrice_RulesNeverStack(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.EarlyBird = &model.EarlyBirdRule{
        WindowStart: now.Add(-time.Hour),
        WindowEnd:   now.Add(time.Hour),
        Percent:     10,
    }
    tt.LastMinute = &model.LastMinuteRule{WindowStart: now.Add(-time.Hour), Percent: 50}
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 50}

    q, err := ComputePrice(tt, 1, now)
    require.NoError(t, err)

    assert.Equal(t, RuleEarlyBird, q.AppliedRule)
    assert.Equal(t, int64(1800), q.UnitPriceMinor)
}

func TestComputePrice_RoundsHalfUp(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.BasePriceMinor = 1005 // $10.05
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 10}

    q, err := ComputePrice(tt, 1, now)
    require.NoError(t, err)

    // 10.05 * 0.90 = 9.045 -> 9.05 half-up.
    assert.Equal(t, int64(905), q.UnitPriceMinor)
}

func TestComputePrice_Deterministic(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

    tt := baseTicketType()
    tt.FixedDiscount = &model.FixedDiscountRule{Percent: 7}

    first, err := ComputePrice(tt, 5, now)
    require.NoError(t, err)
    for i := 0; i < 10; i++ {
        again, err := ComputePrice(tt, 5, now)
        require.NoError(t, err)
        assert.Equal(t, first, again)
    }
}

func TestComputePrice_InvalidInput(t *testing.T) {
    now := time.Now().UTC()

    tt := baseTicketType()
    tt.BasePriceMinor = 0
    _, err := ComputePrice(tt, 1, now)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)

    _, err = ComputePrice(baseTicketType(), 0, now)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)

    _, err = ComputePrice(nil, 1, now)
    assert.ErrorIs(t, err, model.ErrInvalidPricingInput)
}
