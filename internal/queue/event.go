// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for reservation lifecycle events.
const (
    QueueReservationCommitted = "reservation.committed"
    QueueReservationReleased  = "reservation.released"
)

// ReservationEvent is published when a reservation is committed or
// released. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type ReservationEvent struct {
    ReservationID string   `json:"reservation_id"`
    Kind          string   `json:"kind"`
    BuyerID       string   `json:"buyer_id"`
    EventID       string   `json:"event_id"`
    TicketTypeID  string   `json:"ticket_type_id,omitempty"`
    SeatIDs       []string `json:"seat_ids,omitempty"`
    Quantity      int      `json:"quantity"`
    TotalMinor    int64    `json:"total_minor"`
    State         string   `json:"state"`
    OccurredAt    string   `json:"occurred_at"`
}
