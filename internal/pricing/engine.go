// Package pricing computes quotes for ticket types. Everything here is
// pure: the same ticket type, quantity and instant always produce the
// same quote, and nothing in this package mutates shared state. Money
// is handled with shopspring/decimal and rounded half-up to the ticket
// type's minor-unit exponent.
package pricing

import (
    "time"

    "github.com/shopspring/decimal"

    "github.com/seatforge/ticketing/internal/model"
)

// Rule names reported on a quote so callers can show which adjustment
// was applied.
const (
    RuleBase          = "base"
    RuleEarlyBird     = "early_bird"
    RuleLastMinute    = "last_minute"
    RuleFixedDiscount = "fixed_discount"
    RuleGroupDiscount = "group_discount"
)

// Quote is the result of pricing a quantity of one ticket type. Minor
// fields are the same amounts expressed in the currency's minor units.
type Quote struct {
    UnitPrice      decimal.Decimal
    TotalPrice     decimal.Decimal
    UnitPriceMinor int64
    TotalMinor     int64
    AppliedRule    string
}

var oneHundred = decimal.NewFromInt(100)

// ComputePrice derives the unit price for a ticket type at the given
// instant and multiplies it across the quantity. Exactly one rule
// applies, in fixed precedence: the early-bird window first, then the
// last-minute surcharge, then a configured fixed discount, and finally
// the bare base price. Group discounts are layered separately by
// ComputeGroupPrice.
func ComputePrice(tt *model.TicketType, quantity int, now time.Time) (Quote, error) {
    if tt == nil || tt.BasePriceMinor <= 0 || quantity < 1 {
        return Quote{}, model.ErrInvalidPricingInput
    }

    base := decimal.New(tt.BasePriceMinor, -tt.MinorUnit)
    unit := base
    rule := RuleBase

    switch {
    case tt.EarlyBird != nil && inWindow(now, tt.EarlyBird.WindowStart, tt.EarlyBird.WindowEnd):
        unit = applyPercent(base, -tt.EarlyBird.Percent, tt.MinorUnit)
        rule = RuleEarlyBird
    case tt.LastMinute != nil && !now.Before(tt.LastMinute.WindowStart):
        unit = applyPercent(base, tt.LastMinute.Percent, tt.MinorUnit)
        rule = RuleLastMinute
    case tt.FixedDiscount != nil && tt.FixedDiscount.Percent > 0:
        unit = applyPercent(base, -tt.FixedDiscount.Percent, tt.MinorUnit)
        rule = RuleFixedDiscount
    }

    total := unit.Mul(decimal.NewFromInt(int64(quantity)))
    return Quote{
        UnitPrice:      unit,
        TotalPrice:     total,
        UnitPriceMinor: toMinor(unit, tt.MinorUnit),
        TotalMinor:     toMinor(total, tt.MinorUnit),
        AppliedRule:    rule,
    }, nil
}

// applyPercent adjusts price by pct percent (negative = discount) and
// rounds to the minor-unit exponent. Round is half away from zero,
// which for positive prices is exactly round-half-up.
func applyPercent(price decimal.Decimal, pct int, minorUnit int32) decimal.Decimal {
    factor := oneHundred.Add(decimal.NewFromInt(int64(pct))).Div(oneHundred)
    return price.Mul(factor).Round(minorUnit)
}

func inWindow(now, start, end time.Time) bool {
    return !now.Before(start) && now.Before(end)
}

func toMinor(price decimal.Decimal, minorUnit int32) int64 {
    return price.Shift(minorUnit).IntPart()
}
