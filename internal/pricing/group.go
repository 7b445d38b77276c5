package pricing

import (
    "github.com/shopspring/decimal"

    "github.com/seatforge/ticketing/internal/model"
)

// GroupQuote is the result of applying a group discount on top of an
// already time-adjusted unit price.
type GroupQuote struct {
    TotalPrice       decimal.Decimal
    DiscountAmount   decimal.Decimal
    PricePerTicket   decimal.Decimal
    TotalMinor       int64
    DiscountMinor    int64
    PerTicketMinor   int64
    ThresholdApplied bool
}

// ComputeGroupPrice layers the ticket type's group-discount rule over
// the unit price produced by ComputePrice. Below the threshold (or
// with no rule configured) the quote passes through unchanged:
// total = unitPrice * quantity exactly. At or above the threshold the
// percentage comes off the unit price, rounded per ticket, then
// scaled across the quantity.
func ComputeGroupPrice(tt *model.TicketType, unitPrice decimal.Decimal, quantity int) (GroupQuote, error) {
    if tt == nil || quantity < 1 || unitPrice.Sign() <= 0 {
        return GroupQuote{}, model.ErrInvalidPricingInput
    }

    qty := decimal.NewFromInt(int64(quantity))
    rule := tt.GroupDiscount
    if rule == nil || rule.Threshold < 1 || quantity < rule.Threshold {
        total := unitPrice.Mul(qty)
        return GroupQuote{
            TotalPrice:     total,
            DiscountAmount: decimal.Zero,
            PricePerTicket: unitPrice,
            TotalMinor:     toMinor(total, tt.MinorUnit),
            PerTicketMinor: toMinor(unitPrice, tt.MinorUnit),
        }, nil
    }

    perTicket := applyPercent(unitPrice, -rule.Percent, tt.MinorUnit)
    total := perTicket.Mul(qty)
    discount := unitPrice.Mul(qty).Sub(total)
    return GroupQuote{
        TotalPrice:       total,
        DiscountAmount:   discount,
        PricePerTicket:   perTicket,
        TotalMinor:       toMinor(total, tt.MinorUnit),
        DiscountMinor:    toMinor(discount, tt.MinorUnit),
        PerTicketMinor:   toMinor(perTicket, tt.MinorUnit),
        ThresholdApplied: true,
    }, nil
}
