package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/seatforge/ticketing/internal/model"
)

// SeatRepo persists assigned-seating state. It implements
// inventory.SeatStore: each transition is a conditional UPDATE keyed
// on the current status, so a seat can never be flipped out from under
// a concurrent winner.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
    return &SeatRepo{db: db}
}

// CreateSeats inserts seats in a single statement. Status defaults to
// available in the schema.
func (r *SeatRepo) CreateSeats(ctx context.Context, seats []model.Seat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO seats (id, event_id, chart_id, section, row_label, position, price_minor, minor_unit, seat_type, ada) VALUES `
    args := make([]interface{}, 0, len(seats)*10)
    for i, s := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
        args = append(args, s.ID, s.EventID, s.ChartID, s.Section, s.RowLabel, s.Position, s.PriceMinor, s.MinorUnit, s.SeatType, s.ADA)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

const seatColumns = `id, event_id, chart_id, section, row_label, position,
    price_minor, minor_unit, seat_type, ada, status, reserved_by, reserved_until,
    created_at, updated_at`

// Seats loads the listed seats; every id must exist.
func (r *SeatRepo) Seats(ctx context.Context, seatIDs []string) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return []model.Seat{}, nil
    }
    query := `SELECT ` + seatColumns + ` FROM seats WHERE id IN (` + inPlaceholders(len(seatIDs)) + `)`
    args := make([]interface{}, len(seatIDs))
    for i, id := range seatIDs {
        args[i] = id
    }
    seats, err := r.querySeats(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    if len(seats) != len(seatIDs) {
        return nil, model.ErrSeatNotFound
    }
    // Preserve request order for callers that index into the result.
    byID := make(map[string]model.Seat, len(seats))
    for _, s := range seats {
        byID[s.ID] = s
    }
    ordered := make([]model.Seat, 0, len(seatIDs))
    for _, id := range seatIDs {
        ordered = append(ordered, byID[id])
    }
    return ordered, nil
}

// SeatsByEvent loads all seats of an event in chart order.
func (r *SeatRepo) SeatsByEvent(ctx context.Context, eventID string) ([]model.Seat, error) {
    query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = ? ORDER BY section, row_label, position`
    return r.querySeats(ctx, query, eventID)
}

func (r *SeatRepo) querySeats(ctx context.Context, query string, args ...interface{}) ([]model.Seat, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var seats []model.Seat
    for rows.Next() {
        var s model.Seat
        var status string
        var reservedBy sql.NullString
        var reservedUntil sql.NullTime
        if err := rows.Scan(
            &s.ID, &s.EventID, &s.ChartID, &s.Section, &s.RowLabel, &s.Position,
            &s.PriceMinor, &s.MinorUnit, &s.SeatType, &s.ADA, &status,
            &reservedBy, &reservedUntil, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        s.Status = model.SeatStatus(status)
        if reservedBy.Valid {
            s.ReservedBy = reservedBy.String
        }
        if reservedUntil.Valid {
            t := reservedUntil.Time
            s.ReservedUntil = &t
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// ReserveSeats flips every listed seat available -> reserved inside one
// transaction. A seat whose conditional UPDATE affects zero rows is a
// conflict; the error rolls the transaction back, which is exactly the
// all-or-nothing rollback the contract demands.
func (r *SeatRepo) ReserveSeats(ctx context.Context, seatIDs []string, holderID string, expiresAt time.Time) error {
    return withTx(ctx, r.db, func(tx *sql.Tx) error {
        const upd = `UPDATE seats SET status = 'reserved', reserved_by = ?, reserved_until = ?
            WHERE id = ? AND status = 'available'`
        var conflicts []string
        for _, id := range seatIDs {
            res, err := tx.ExecContext(ctx, upd, holderID, expiresAt.UTC(), id)
            if err != nil {
                return err
            }
            n, err := res.RowsAffected()
            if err != nil {
                return err
            }
            if n == 0 {
                var status string
                err := tx.QueryRowContext(ctx, `SELECT status FROM seats WHERE id = ?`, id).Scan(&status)
                if errors.Is(err, sql.ErrNoRows) {
                    return model.ErrSeatNotFound
                }
                if err != nil {
                    return err
                }
                conflicts = append(conflicts, id)
            }
        }
        if len(conflicts) > 0 {
            return &model.SeatConflictError{SeatIDs: conflicts}
        }
        return nil
    })
}

// CommitSeats flips reserved -> sold for seats held by holderID. Seats
// held by someone else, swept back, or already sold surface as
// conflicts and nothing commits.
func (r *SeatRepo) CommitSeats(ctx context.Context, seatIDs []string, holderID string) error {
    return withTx(ctx, r.db, func(tx *sql.Tx) error {
        const upd = `UPDATE seats SET status = 'sold', reserved_by = NULL, reserved_until = NULL
            WHERE id = ? AND status = 'reserved' AND reserved_by = ?`
        var conflicts []string
        for _, id := range seatIDs {
            res, err := tx.ExecContext(ctx, upd, id, holderID)
            if err != nil {
                return err
            }
            n, err := res.RowsAffected()
            if err != nil {
                return err
            }
            if n == 0 {
                var exists int
                err := tx.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, id).Scan(&exists)
                if errors.Is(err, sql.ErrNoRows) {
                    return model.ErrSeatNotFound
                }
                if err != nil {
                    return err
                }
                conflicts = append(conflicts, id)
            }
        }
        if len(conflicts) > 0 {
            return &model.SeatConflictError{SeatIDs: conflicts}
        }
        return nil
    })
}

// ReleaseSeats returns reserved seats to available. The status guard in
// the WHERE clause makes it safe against sold and blocked seats, so
// duplicate cancel and expiry signals are no-ops.
func (r *SeatRepo) ReleaseSeats(ctx context.Context, seatIDs []string) (int, error) {
    if len(seatIDs) == 0 {
        return 0, nil
    }
    query := `UPDATE seats SET status = 'available', reserved_by = NULL, reserved_until = NULL
        WHERE status = 'reserved' AND id IN (` + inPlaceholders(len(seatIDs)) + `)`
    args := make([]interface{}, len(seatIDs))
    for i, id := range seatIDs {
        args[i] = id
    }
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

// SweepExpired releases every seat whose hold lapsed. The status
// re-check is part of the statement, so a seat committed after being
// selected by a scan can never be downgraded.
func (r *SeatRepo) SweepExpired(ctx context.Context, now time.Time) (int, error) {
    const q = `UPDATE seats SET status = 'available', reserved_by = NULL, reserved_until = NULL
        WHERE status = 'reserved' AND reserved_until < ?`
    res, err := r.db.ExecContext(ctx, q, now.UTC())
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

// Block marks seats blocked, dropping any hold. Sold seats cannot be
// blocked and surface as conflicts.
func (r *SeatRepo) Block(ctx context.Context, seatIDs []string) error {
    return withTx(ctx, r.db, func(tx *sql.Tx) error {
        const upd = `UPDATE seats SET status = 'blocked', reserved_by = NULL, reserved_until = NULL
            WHERE id = ? AND status IN ('available', 'reserved', 'blocked')`
        var conflicts []string
        for _, id := range seatIDs {
            res, err := tx.ExecContext(ctx, upd, id)
            if err != nil {
                return err
            }
            n, err := res.RowsAffected()
            if err != nil {
                return err
            }
            if n == 0 {
                var exists int
                err := tx.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, id).Scan(&exists)
                if errors.Is(err, sql.ErrNoRows) {
                    return model.ErrSeatNotFound
                }
                if err != nil {
                    return err
                }
                conflicts = append(conflicts, id)
            }
        }
        if len(conflicts) > 0 {
            return &model.SeatConflictError{SeatIDs: conflicts}
        }
        return nil
    })
}

// Unblock returns blocked seats to available. Seats in any other state
// are left untouched.
func (r *SeatRepo) Unblock(ctx context.Context, seatIDs []string) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `UPDATE seats SET status = 'available' WHERE status = 'blocked' AND id IN (` + inPlaceholders(len(seatIDs)) + `)`
    args := make([]interface{}, len(seatIDs))
    for i, id := range seatIDs {
        args[i] = id
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}
