package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/seatforge/ticketing/internal/middleware"
    "github.com/seatforge/ticketing/internal/reservation"
)

// CheckoutHandler exposes the quote and reservation lifecycle over
// HTTP. All methods assume the buyer identity middleware has already
// run; the reservation manager performs every capacity and restriction
// check, so handlers only translate between JSON and domain calls.
type CheckoutHandler struct {
    Manager *reservation.Manager
}

// NewCheckoutHandler constructs a CheckoutHandler. The manager must be
// non-nil.
func NewCheckoutHandler(mgr *reservation.Manager) *CheckoutHandler {
    if mgr == nil {
        panic("nil manager passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{Manager: mgr}
}

// Quote handles POST /v1/quotes. Quoting never places a hold, so the
// returned numbers are advisory until a reservation captures them.
func (h *CheckoutHandler) Quote(c echo.Context) error {
    var body struct {
        TicketTypeID string `json:"ticket_type_id"`
        Quantity     int    `json:"quantity"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.TicketTypeID == "" || body.Quantity < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type_id and a positive quantity are required"})
    }

    q, err := h.Manager.Quote(c.Request().Context(), body.TicketTypeID, body.Quantity)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, q)
}

// Reserve handles POST /v1/reservations. A body naming seat_ids places
// a seat-set hold; otherwise ticket_type_id and quantity place a
// general-admission hold. Returns 201 with the reservation handle,
// including its expiry, or 409 with the unavailable seats on conflict.
func (h *CheckoutHandler) Reserve(c echo.Context) error {
    var body struct {
        TicketTypeID string   `json:"ticket_type_id"`
        Quantity     int      `json:"quantity"`
        EventID      string   `json:"event_id"`
        SeatIDs      []string `json:"seat_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.SeatIDs) == 0 && body.TicketTypeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "either seat_ids or ticket_type_id is required"})
    }

    rec, err := h.Manager.Reserve(c.Request().Context(), reservation.ReserveInput{
        BuyerID:      middleware.BuyerID(c),
        BuyerAge:     middleware.BuyerAge(c),
        IsMember:     middleware.IsMember(c),
        TicketTypeID: body.TicketTypeID,
        Quantity:     body.Quantity,
        EventID:      body.EventID,
        SeatIDs:      body.SeatIDs,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, rec)
}

// Get handles GET /v1/reservations/:id. Reservations are scoped to the
// buyer who placed them; anyone else sees 404.
func (h *CheckoutHandler) Get(c echo.Context) error {
    rec, err := h.Manager.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if rec.BuyerID != middleware.BuyerID(c) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    return c.JSON(http.StatusOK, rec)
}

// Commit handles POST /v1/reservations/:id/commit. An expired or
// already-terminal reservation cannot be committed and reports 404.
func (h *CheckoutHandler) Commit(c echo.Context) error {
    rec, err := h.Manager.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if rec.BuyerID != middleware.BuyerID(c) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }

    committed, err := h.Manager.Commit(c.Request().Context(), rec.ID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, committed)
}

// Release handles POST /v1/reservations/:id/release. Releasing is
// idempotent: repeating the call returns the reservation in its
// terminal state with 200.
func (h *CheckoutHandler) Release(c echo.Context) error {
    rec, err := h.Manager.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if rec.BuyerID != middleware.BuyerID(c) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }

    released, err := h.Manager.Release(c.Request().Context(), rec.ID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, released)
}
