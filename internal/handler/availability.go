package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/seatforge/ticketing/internal/inventory"
    "github.com/seatforge/ticketing/internal/model"
)

// AvailabilityHandler serves read-only availability views. These are
// the endpoints fronted by the response cache; reads go straight to
// the stores and never place holds.
type AvailabilityHandler struct {
    GA    inventory.Store
    Seats inventory.SeatStore
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(ga inventory.Store, seats inventory.SeatStore) *AvailabilityHandler {
    if ga == nil || seats == nil {
        panic("nil store passed to NewAvailabilityHandler")
    }
    return &AvailabilityHandler{GA: ga, Seats: seats}
}

// TicketType handles GET /v1/ticket-types/:id. The counters expose
// remaining capacity without promising it: a reserve may still fail by
// the time the client acts on the number.
func (h *AvailabilityHandler) TicketType(c echo.Context) error {
    tt, err := h.GA.TicketType(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ticket_type": tt,
        "remaining":   tt.Remaining(),
    })
}

// seatView is the public projection of a seat. Holder identity and
// hold expiry stay private.
type seatView struct {
    ID       string           `json:"id"`
    Section  string           `json:"section"`
    RowLabel string           `json:"row_label"`
    Position int              `json:"position"`
    Price    int64            `json:"price_minor"`
    SeatType string           `json:"seat_type,omitempty"`
    ADA      bool             `json:"ada,omitempty"`
    Status   model.SeatStatus `json:"status"`
}

// EventSeats handles GET /v1/events/:id/seats and returns the seat map
// with current statuses.
func (h *AvailabilityHandler) EventSeats(c echo.Context) error {
    seats, err := h.Seats.SeatsByEvent(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }

    views := make([]seatView, 0, len(seats))
    available := 0
    for _, s := range seats {
        if s.Status == model.SeatAvailable {
            available++
        }
        views = append(views, seatView{
            ID:       s.ID,
            Section:  s.Section,
            RowLabel: s.RowLabel,
            Position: s.Position,
            Price:    s.PriceMinor,
            SeatType: s.SeatType,
            ADA:      s.ADA,
            Status:   s.Status,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "event_id":  c.Param("id"),
        "available": available,
        "seats":     views,
    })
}
