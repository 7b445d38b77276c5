package middleware

// identity.go attaches the buyer identity to the request context.
// Callers identify themselves with an opaque X-Buyer-ID header; the
// engine performs no authentication of its own and treats the value as
// a caller-supplied partition key. Age and membership ride along on
// their own headers for ticket types that restrict eligibility.

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
)

// Header names for the buyer identity.
const (
    HeaderBuyerID     = "X-Buyer-ID"
    HeaderBuyerAge    = "X-Buyer-Age"
    HeaderBuyerMember = "X-Buyer-Member"
)

// Context keys set by BuyerIdentity.
const (
    ContextBuyerID  = "buyer_id"
    ContextBuyerAge = "buyer_age"
    ContextIsMember = "is_member"
)

// BuyerIdentity requires X-Buyer-ID on every request it guards and
// stores the identity in the echo context for handlers and the rate
// limiter.
func BuyerIdentity() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(HeaderBuyerID)
            if id == "" {
                return c.JSON(http.StatusBadRequest, map[string]string{
                    "error":   "missing_buyer",
                    "message": "the " + HeaderBuyerID + " header is required",
                })
            }
            c.Set(ContextBuyerID, id)
            if ageStr := c.Request().Header.Get(HeaderBuyerAge); ageStr != "" {
                if age, err := strconv.Atoi(ageStr); err == nil && age > 0 {
                    c.Set(ContextBuyerAge, age)
                }
            }
            if m := c.Request().Header.Get(HeaderBuyerMember); m == "true" || m == "1" {
                c.Set(ContextIsMember, true)
            }
            return next(c)
        }
    }
}

// BuyerID returns the identity stored by BuyerIdentity, or "" when the
// route is not guarded.
func BuyerID(c echo.Context) string {
    if v, ok := c.Get(ContextBuyerID).(string); ok {
        return v
    }
    return ""
}

// BuyerAge returns the declared age, zero when not supplied.
func BuyerAge(c echo.Context) int {
    if v, ok := c.Get(ContextBuyerAge).(int); ok {
        return v
    }
    return 0
}

// IsMember reports whether the caller declared membership.
func IsMember(c echo.Context) bool {
    v, _ := c.Get(ContextIsMember).(bool)
    return v
}
