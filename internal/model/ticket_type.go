package model

import "time"

// PricingTier classifies a ticket type for reporting and
// rule selection. The tier itself carries no arithmetic; the
// discount rules attached to the ticket type do.
type PricingTier string

const (
    TierBasic      PricingTier = "basic"
    TierEarlyBird  PricingTier = "early_bird"
    TierPremium    PricingTier = "premium"
    TierVIP        PricingTier = "vip"
    TierLastMinute PricingTier = "last_minute"
)

// EarlyBirdRule discounts the base price while the sale clock is
// inside [WindowStart, WindowEnd).
type EarlyBirdRule struct {
    WindowStart time.Time `json:"window_start"`
    WindowEnd   time.Time `json:"window_end"`
    Percent     int       `json:"percent"` // whole-number percentage off the base price
}

// LastMinuteRule adds a surcharge from WindowStart onwards,
// typically the final hours before the event.
type LastMinuteRule struct {
    WindowStart time.Time `json:"window_start"`
    Percent     int       `json:"percent"` // whole-number percentage added to the base price
}

// FixedDiscountRule is a flat percentage off the base price that
// applies whenever no time-based rule matches.
type FixedDiscountRule struct {
    Percent int `json:"percent"`
}

// GroupDiscountRule discounts the per-ticket price once an order
// reaches Threshold tickets. It composes with whichever time-based
// rule already produced the unit price.
type GroupDiscountRule struct {
    Threshold int `json:"threshold"`
    Percent   int `json:"percent"`
}

// Restrictions limits who may reserve a ticket type. Zero values
// mean "no restriction" for the age bounds.
type Restrictions struct {
    MinAge     int  `json:"min_age"`
    MaxAge     int  `json:"max_age"`
    MemberOnly bool `json:"member_only"`
}

// TicketType describes a sellable general-admission inventory pool.
// Prices are stored in minor units (e.g. cents); MinorUnit is the
// currency exponent used when rounding percentage math.
//
// Invariant, enforced by the owning store:
//
//	QuantitySold + QuantityReserved <= QuantityAvailable
type TicketType struct {
    ID                string             `json:"id"`
    EventID           string             `json:"event_id"`
    Name              string             `json:"name"`
    BasePriceMinor    int64              `json:"base_price_minor"`
    MinorUnit         int32              `json:"minor_unit"` // currency exponent, 2 for cents
    QuantityAvailable int                `json:"quantity_available"`
    QuantitySold      int                `json:"quantity_sold"`
    QuantityReserved  int                `json:"quantity_reserved"`
    Tier              PricingTier        `json:"tier"`
    EarlyBird         *EarlyBirdRule     `json:"early_bird,omitempty"`
    LastMinute        *LastMinuteRule    `json:"last_minute,omitempty"`
    FixedDiscount     *FixedDiscountRule `json:"fixed_discount,omitempty"`
    GroupDiscount     *GroupDiscountRule `json:"group_discount,omitempty"`
    ValidFrom         *time.Time         `json:"valid_from,omitempty"`  // sale window start, nil = open
    ValidUntil        *time.Time         `json:"valid_until,omitempty"` // sale window end, nil = open
    MaxPerOrder       int                `json:"max_per_order"` // 0 = unlimited
    Restrictions      Restrictions       `json:"restrictions"`
    CreatedAt         time.Time          `json:"created_at"`
    UpdatedAt         time.Time          `json:"updated_at"`
}

// Remaining reports how many tickets can still be reserved.
func (t *TicketType) Remaining() int {
    return t.QuantityAvailable - t.QuantitySold - t.QuantityReserved
}

// SaleOpen reports whether the sale window admits the given instant.
func (t *TicketType) SaleOpen(now time.Time) bool {
    if t.ValidFrom != nil && now.Before(*t.ValidFrom) {
        return false
    }
    if t.ValidUntil != nil && !now.Before(*t.ValidUntil) {
        return false
    }
    return true
}
