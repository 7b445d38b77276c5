// Package inventory defines the contracts for the authoritative ticket
// and seat state, plus in-memory implementations of them. The stores
// are the only writers of counters and seat rows; every transition is
// a conditional mutation so that two racing callers can never both
// succeed against the same capacity.
package inventory

import (
    "context"
    "time"

    "github.com/seatforge/ticketing/internal/model"
)

// Store guards the counters of general-admission ticket types. Reserve
// performs the availability check and the counter increment as one
// atomic step and issues an opaque token that commit/release key on.
type Store interface {
    // Reserve places a hold for quantity tickets. Fails with
    // model.ErrInsufficientInventory when fewer tickets remain.
    Reserve(ctx context.Context, ticketTypeID string, quantity int, holderID string, expiresAt time.Time) (token string, err error)

    // Commit moves a held quantity from reserved to sold. Fails with
    // model.ErrReservationNotFound when the token is unknown or the
    // hold is already terminal.
    Commit(ctx context.Context, token string) error

    // Release returns a held quantity to available. Idempotent: an
    // already-terminal token is a no-op reporting the prior state.
    Release(ctx context.Context, token string) (prior model.ReservationState, err error)

    // SweepExpired releases every hold whose expiry lies strictly
    // before now and returns their tokens.
    SweepExpired(ctx context.Context, now time.Time) (tokens []string, err error)

    CreateTicketType(ctx context.Context, tt *model.TicketType) error
    TicketType(ctx context.Context, id string) (*model.TicketType, error)
}

// SeatStore guards per-seat state for assigned seating. All bulk
// operations are all-or-nothing: a request naming one unavailable seat
// mutates nothing.
type SeatStore interface {
    // ReserveSeats flips every listed seat from available to reserved
    // for holderID, stamping expiresAt. On any conflict the whole call
    // fails with *model.SeatConflictError and no seat is left flipped.
    ReserveSeats(ctx context.Context, seatIDs []string, holderID string, expiresAt time.Time) error

    // CommitSeats flips reserved seats to sold, but only seats held by
    // holderID. Seats held by someone else or already sold are
    // reported via *model.SeatConflictError; nothing is committed
    // partially.
    CommitSeats(ctx context.Context, seatIDs []string, holderID string) error

    // ReleaseSeats flips reserved seats back to available. Sold and
    // blocked seats are untouched; the count of seats actually
    // released is returned.
    ReleaseSeats(ctx context.Context, seatIDs []string) (released int, err error)

    // SweepExpired releases every seat still reserved whose
    // reserved_until lies strictly before now. The status re-check is
    // part of the mutation so a concurrently committed seat is never
    // downgraded.
    SweepExpired(ctx context.Context, now time.Time) (released int, err error)

    // Block marks available or reserved seats as blocked, dropping any
    // hold. Unblock returns blocked seats to available.
    Block(ctx context.Context, seatIDs []string) error
    Unblock(ctx context.Context, seatIDs []string) error

    CreateSeats(ctx context.Context, seats []model.Seat) error
    Seats(ctx context.Context, seatIDs []string) ([]model.Seat, error)
    SeatsByEvent(ctx context.Context, eventID string) ([]model.Seat, error)
}

// ReservationStore persists the handles the reservation manager hands
// to callers. State changes go through Transition, a conditional
// update that fails when the stored state no longer matches from —
// this is what orders a commit against a concurrent sweep.
type ReservationStore interface {
    Create(ctx context.Context, r *model.Reservation) error
    Get(ctx context.Context, id string) (*model.Reservation, error)

    // Transition moves a reservation from one state to another iff it
    // is currently in from. Returns model.ErrReservationNotFound when
    // the id is unknown or the state already moved on.
    Transition(ctx context.Context, id string, from, to model.ReservationState) error

    // ExpireHeldBefore marks every held reservation whose expiry lies
    // strictly before now as expired and returns the count.
    ExpireHeldBefore(ctx context.Context, now time.Time) (int, error)
}
