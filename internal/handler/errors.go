package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/seatforge/ticketing/internal/model"
)

// writeError maps domain errors onto HTTP responses. Capacity races
// surface as 409 so clients know to retry with different seats or a
// smaller quantity; eligibility failures are 403/422 and never leak
// whether capacity existed.
func writeError(c echo.Context, err error) error {
    var conflict *model.SeatConflictError
    if errors.As(err, &conflict) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       "seats_unavailable",
            "unavailable": conflict.SeatIDs,
        })
    }

    switch {
    case errors.Is(err, model.ErrInsufficientInventory):
        return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient_inventory"})
    case errors.Is(err, model.ErrAlreadyReserved):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seats_unavailable"})
    case errors.Is(err, model.ErrSaleClosed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "sale_closed"})
    case errors.Is(err, model.ErrReservationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    case errors.Is(err, model.ErrTicketTypeNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
    case errors.Is(err, model.ErrSeatNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
    case errors.Is(err, model.ErrRestrictionViolation):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "restriction_violation"})
    case errors.Is(err, model.ErrMaxPerOrderExceeded):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "max_per_order_exceeded"})
    case errors.Is(err, model.ErrConflictingPriceConfig):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "conflicting_price_config"})
    case errors.Is(err, model.ErrInvalidPricingInput):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_input"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
