package handler

import (
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/seatforge/ticketing/internal/inventory"
    "github.com/seatforge/ticketing/internal/model"
)

// AdminHandler covers inventory administration: defining ticket types,
// loading seating charts, and blocking seats. Pricing lives in exactly
// one place per sellable unit — a general-admission ticket type carries
// the price for its pool, an assigned seat carries its own — and the
// create endpoints reject definitions that try to do both.
type AdminHandler struct {
    GA    inventory.Store
    Seats inventory.SeatStore
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(ga inventory.Store, seats inventory.SeatStore) *AdminHandler {
    if ga == nil || seats == nil {
        panic("nil store passed to NewAdminHandler")
    }
    return &AdminHandler{GA: ga, Seats: seats}
}

// CreateTicketType handles POST /v1/admin/ticket-types.
func (h *AdminHandler) CreateTicketType(c echo.Context) error {
    var body struct {
        EventID           string                    `json:"event_id"`
        Name              string                    `json:"name"`
        BasePriceMinor    int64                     `json:"base_price_minor"`
        MinorUnit         int32                     `json:"minor_unit"`
        QuantityAvailable int                       `json:"quantity_available"`
        Tier              string                    `json:"tier"`
        EarlyBird         *model.EarlyBirdRule      `json:"early_bird"`
        LastMinute        *model.LastMinuteRule     `json:"last_minute"`
        FixedDiscount     *model.FixedDiscountRule  `json:"fixed_discount"`
        GroupDiscount     *model.GroupDiscountRule  `json:"group_discount"`
        ValidFrom         *time.Time                `json:"valid_from"`
        ValidUntil        *time.Time                `json:"valid_until"`
        MaxPerOrder       int                       `json:"max_per_order"`
        Restrictions      model.Restrictions        `json:"restrictions"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.EventID == "" || body.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and name are required"})
    }
    if body.BasePriceMinor <= 0 || body.QuantityAvailable < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_minor and quantity_available must be positive"})
    }
    if body.MinorUnit == 0 {
        body.MinorUnit = 2
    }
    tier := model.PricingTier(body.Tier)
    if tier == "" {
        tier = model.TierBasic
    }

    tt := &model.TicketType{
        ID:                uuid.NewString(),
        EventID:           body.EventID,
        Name:              body.Name,
        BasePriceMinor:    body.BasePriceMinor,
        MinorUnit:         body.MinorUnit,
        QuantityAvailable: body.QuantityAvailable,
        Tier:              tier,
        EarlyBird:         body.EarlyBird,
        LastMinute:        body.LastMinute,
        FixedDiscount:     body.FixedDiscount,
        GroupDiscount:     body.GroupDiscount,
        ValidFrom:         body.ValidFrom,
        ValidUntil:        body.ValidUntil,
        MaxPerOrder:       body.MaxPerOrder,
        Restrictions:      body.Restrictions,
        CreatedAt:         time.Now().UTC(),
        UpdatedAt:         time.Now().UTC(),
    }
    if err := h.GA.CreateTicketType(c.Request().Context(), tt); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, tt)
}

// CreateSeats handles POST /v1/admin/seats, bulk-loading one seating
// chart. Each seat prices itself; a request that also names a
// ticket_type_id is ambiguous about which price wins and is rejected.
func (h *AdminHandler) CreateSeats(c echo.Context) error {
    var body struct {
        EventID      string `json:"event_id"`
        ChartID      string `json:"chart_id"`
        TicketTypeID string `json:"ticket_type_id"`
        Seats        []struct {
            Section    string `json:"section"`
            RowLabel   string `json:"row_label"`
            Position   int    `json:"position"`
            PriceMinor int64  `json:"price_minor"`
            MinorUnit  int32  `json:"minor_unit"`
            SeatType   string `json:"seat_type"`
            ADA        bool   `json:"ada"`
        } `json:"seats"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.EventID == "" || len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and a non-empty seats array are required"})
    }
    if body.TicketTypeID != "" {
        return writeError(c, model.ErrConflictingPriceConfig)
    }

    now := time.Now().UTC()
    seats := make([]model.Seat, 0, len(body.Seats))
    for _, s := range body.Seats {
        if s.PriceMinor <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "every seat needs a positive price_minor"})
        }
        minorUnit := s.MinorUnit
        if minorUnit == 0 {
            minorUnit = 2
        }
        seatType := s.SeatType
        if seatType == "" {
            seatType = "STANDARD"
        }
        seats = append(seats, model.Seat{
            ID:         uuid.NewString(),
            EventID:    body.EventID,
            ChartID:    body.ChartID,
            Section:    s.Section,
            RowLabel:   s.RowLabel,
            Position:   s.Position,
            PriceMinor: s.PriceMinor,
            MinorUnit:  minorUnit,
            SeatType:   seatType,
            ADA:        s.ADA,
            Status:     model.SeatAvailable,
            CreatedAt:  now,
            UpdatedAt:  now,
        })
    }
    if err := h.Seats.CreateSeats(c.Request().Context(), seats); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"created": len(seats), "seats": seats})
}

// BlockSeats handles POST /v1/admin/seats/block. Blocked seats drop
// any live hold and stay out of sale until unblocked; sold seats
// cannot be blocked.
func (h *AdminHandler) BlockSeats(c echo.Context) error {
    seatIDs, ok := bindSeatIDs(c)
    if !ok {
        return nil
    }
    if err := h.Seats.Block(c.Request().Context(), seatIDs); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"blocked": seatIDs})
}

// UnblockSeats handles POST /v1/admin/seats/unblock.
func (h *AdminHandler) UnblockSeats(c echo.Context) error {
    seatIDs, ok := bindSeatIDs(c)
    if !ok {
        return nil
    }
    if err := h.Seats.Unblock(c.Request().Context(), seatIDs); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"unblocked": seatIDs})
}

func bindSeatIDs(c echo.Context) ([]string, bool) {
    var body struct {
        SeatIDs []string `json:"seat_ids"`
    }
    if err := c.Bind(&body); err != nil {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
        return nil, false
    }
    if len(body.SeatIDs) == 0 {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
        return nil, false
    }
    return body.SeatIDs, true
}
