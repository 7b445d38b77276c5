package model

import "time"

// SeatStatus is the single availability state of a seat. Exactly one
// status holds at any time; transitions go through the owning store's
// conditional updates only.
type SeatStatus string

const (
    SeatAvailable SeatStatus = "available"
    SeatReserved  SeatStatus = "reserved"
    SeatSold      SeatStatus = "sold"
    SeatBlocked   SeatStatus = "blocked" // administrative, manual unblock only
)

// Seat describes one assignable seat on a seating chart. ReservedBy
// and ReservedUntil are populated iff Status is SeatReserved; the
// sweeper relies on ReservedUntil to expire abandoned holds.
type Seat struct {
    ID            string     `json:"id"`
    EventID       string     `json:"event_id"`
    ChartID       string     `json:"chart_id"`
    Section       string     `json:"section"`
    RowLabel      string     `json:"row_label"`
    Position      int        `json:"position"` // 1-based slot within the row
    PriceMinor    int64      `json:"price_minor"`
    MinorUnit     int32      `json:"minor_unit"`
    SeatType      string     `json:"seat_type"` // STANDARD | PREMIUM | ACCESSIBLE
    ADA           bool       `json:"ada"`
    Status        SeatStatus `json:"status"`
    ReservedBy    string     `json:"reserved_by,omitempty"`
    ReservedUntil *time.Time `json:"reserved_until,omitempty"`
    CreatedAt     time.Time  `json:"created_at"`
    UpdatedAt     time.Time  `json:"updated_at"`
}
