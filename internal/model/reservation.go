package model

import "time"

// ReservationState tracks the lifecycle of a hold. Held is the only
// non-terminal state: it moves to committed on payment success, to
// released on explicit cancel, or to expired when the sweeper claims
// it past its TTL.
type ReservationState string

const (
    ReservationHeld      ReservationState = "held"
    ReservationCommitted ReservationState = "committed"
    ReservationReleased  ReservationState = "released"
    ReservationExpired   ReservationState = "expired"
)

// Terminal reports whether the state admits no further transitions.
func (s ReservationState) Terminal() bool {
    return s == ReservationCommitted || s == ReservationReleased || s == ReservationExpired
}

// ReservationKind distinguishes counted general-admission holds from
// seat-set holds.
type ReservationKind string

const (
    KindGeneralAdmission ReservationKind = "ga"
    KindSeats            ReservationKind = "seats"
)

// Reservation is the handle returned to callers when a hold is
// placed. For general admission, HoldToken is the token issued by the
// inventory store and Quantity is the number of tickets held; for
// assigned seating, SeatIDs lists the seats in the hold. Price fields
// record the quote captured at reservation time.
type Reservation struct {
    ID             string           `json:"id"`
    Kind           ReservationKind  `json:"kind"`
    BuyerID        string           `json:"buyer_id"`
    EventID        string           `json:"event_id"`
    TicketTypeID   string           `json:"ticket_type_id,omitempty"`
    Quantity       int              `json:"quantity"`
    SeatIDs        []string         `json:"seat_ids,omitempty"`
    HoldToken      string           `json:"-"` // GA store token, not exposed to callers
    UnitPriceMinor int64            `json:"unit_price_minor"`
    TotalMinor     int64            `json:"total_minor"`
    AppliedRule    string           `json:"applied_rule,omitempty"`
    State          ReservationState `json:"state"`
    CreatedAt      time.Time        `json:"created_at"`
    ExpiresAt      time.Time        `json:"expires_at"`
}
