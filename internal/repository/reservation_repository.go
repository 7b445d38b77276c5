package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/seatforge/ticketing/internal/model"
)

// ReservationRepo persists the handles issued by the reservation
// manager. It implements inventory.ReservationStore. Seat sets live in
// reservation_seats, one row per seat.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo with the given DB handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
    return &ReservationRepo{db: db}
}

// Create inserts the reservation and its seat rows in one transaction.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    return withTx(ctx, r.db, func(tx *sql.Tx) error {
        const ins = `INSERT INTO reservations
            (id, kind, buyer_id, event_id, ticket_type_id, quantity, hold_token,
             unit_price_minor, total_minor, applied_rule, state, created_at, expires_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
        var ticketTypeID, holdToken interface{}
        if res.TicketTypeID != "" {
            ticketTypeID = res.TicketTypeID
        }
        if res.HoldToken != "" {
            holdToken = res.HoldToken
        }
        if _, err := tx.ExecContext(ctx, ins,
            res.ID, string(res.Kind), res.BuyerID, res.EventID, ticketTypeID, res.Quantity,
            holdToken, res.UnitPriceMinor, res.TotalMinor, res.AppliedRule,
            string(res.State), res.CreatedAt.UTC(), res.ExpiresAt.UTC(),
        ); err != nil {
            return err
        }
        if len(res.SeatIDs) == 0 {
            return nil
        }
        query := `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `
        args := make([]interface{}, 0, len(res.SeatIDs)*2)
        for i, seatID := range res.SeatIDs {
            if i > 0 {
                query += ","
            }
            query += "(?, ?)"
            args = append(args, res.ID, seatID)
        }
        _, err := tx.ExecContext(ctx, query, args...)
        return err
    })
}

// Get loads a reservation with its seat set.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*model.Reservation, error) {
    const q = `SELECT id, kind, buyer_id, event_id, ticket_type_id, quantity, hold_token,
        unit_price_minor, total_minor, applied_rule, state, created_at, expires_at
        FROM reservations WHERE id = ?`

    var res model.Reservation
    var kind, state string
    var ticketTypeID, holdToken, appliedRule sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &kind, &res.BuyerID, &res.EventID, &ticketTypeID, &res.Quantity,
        &holdToken, &res.UnitPriceMinor, &res.TotalMinor, &appliedRule, &state,
        &res.CreatedAt, &res.ExpiresAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, model.ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    res.Kind = model.ReservationKind(kind)
    res.State = model.ReservationState(state)
    res.TicketTypeID = ticketTypeID.String
    res.HoldToken = holdToken.String
    res.AppliedRule = appliedRule.String

    rows, err := r.db.QueryContext(ctx,
        `SELECT seat_id FROM reservation_seats WHERE reservation_id = ? ORDER BY seat_id`, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var seatID string
        if err := rows.Scan(&seatID); err != nil {
            return nil, err
        }
        res.SeatIDs = append(res.SeatIDs, seatID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &res, nil
}

// Transition performs the conditional state move. Zero affected rows
// means the id is unknown or another transition won the race; either
// way the caller sees ErrReservationNotFound.
func (r *ReservationRepo) Transition(ctx context.Context, id string, from, to model.ReservationState) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET state = ? WHERE id = ? AND state = ?`,
        string(to), id, string(from))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return model.ErrReservationNotFound
    }
    return nil
}

// ExpireHeldBefore bulk-expires lapsed held reservations.
func (r *ReservationRepo) ExpireHeldBefore(ctx context.Context, now time.Time) (int, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET state = 'expired' WHERE state = 'held' AND expires_at < ?`,
        now.UTC())
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}
