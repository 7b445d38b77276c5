// Package model defines the domain types and the error taxonomy shared
// by the stores, the reservation manager and the HTTP layer. Store
// conflicts are surfaced through these sentinels unchanged so that no
// layer can mask an oversell by retrying silently.
package model

import (
    "errors"
    "fmt"
    "strings"
)

// ErrInsufficientInventory is returned when a general-admission
// reserve asks for more tickets than remain. Recoverable by the
// caller; availability should be re-read.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrAlreadyReserved is returned when a requested seat is held or
// sold by someone else.
var ErrAlreadyReserved = errors.New("seat already reserved")

// ErrReservationNotFound is returned when a handle is unknown, or on
// commit when the handle is already terminal.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrRestrictionViolation is returned when an age or member-only rule
// rejects the buyer before any state is touched.
var ErrRestrictionViolation = errors.New("restriction violation")

// ErrInvalidPricingInput is returned by the pricing engine for a
// non-positive base price or a quantity below one.
var ErrInvalidPricingInput = errors.New("invalid pricing input")

// ErrTicketTypeNotFound is returned when a ticket type lookup yields
// no record.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// ErrSeatNotFound is returned when a referenced seat does not exist.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSaleClosed is returned when a reserve falls outside the ticket
// type's sale window.
var ErrSaleClosed = errors.New("sale window closed")

// ErrMaxPerOrderExceeded is returned when a reserve asks for more
// tickets than the per-order cap allows.
var ErrMaxPerOrderExceeded = errors.New("max per order exceeded")

// ErrConflictingPriceConfig rejects a seat that both carries its own
// assigned price and belongs to a priced ticket type. The two models
// are mutually exclusive; there is no blend rule.
var ErrConflictingPriceConfig = errors.New("conflicting price configuration")

// SeatConflictError reports the exact seats that prevented an
// all-or-nothing seat operation. It matches ErrAlreadyReserved under
// errors.Is so callers can branch on the class while the HTTP layer
// lists the offending seats.
type SeatConflictError struct {
    SeatIDs []string
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("seats unavailable: %s", strings.Join(e.SeatIDs, ", "))
}

func (e *SeatConflictError) Is(target error) bool {
    return target == ErrAlreadyReserved
}
