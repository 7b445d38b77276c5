// Package repository implements the inventory store contracts on
// MySQL. Every state transition is a single conditional UPDATE (the
// availability check lives in the WHERE clause) so the database is the
// serialization point; the affected-row count distinguishes success
// from a concurrent winner.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/seatforge/ticketing/internal/model"
    "github.com/seatforge/ticketing/internal/utils"
)

const holdTokenBytes = 16

// TicketTypeRepo persists general-admission ticket types and their
// holds. It implements inventory.Store: counters live on the
// ticket_types row, issued holds in ticket_holds.
type TicketTypeRepo struct {
    db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
    return &TicketTypeRepo{db: db}
}

// CreateTicketType inserts a ticket type definition. Discount rules
// are stored as typed nullable columns, one set per rule variant.
func (r *TicketTypeRepo) CreateTicketType(ctx context.Context, tt *model.TicketType) error {
    const q = `INSERT INTO ticket_types
        (id, event_id, name, base_price_minor, minor_unit, quantity_available,
         tier, early_bird_start, early_bird_end, early_bird_pct,
         last_minute_start, last_minute_pct, fixed_discount_pct,
         group_threshold, group_pct, valid_from, valid_until,
         max_per_order, min_age, max_age, member_only)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

    var ebStart, ebEnd, lmStart, validFrom, validUntil interface{}
    var ebPct, lmPct, fixedPct, groupThreshold, groupPct interface{}
    if tt.EarlyBird != nil {
        ebStart, ebEnd, ebPct = tt.EarlyBird.WindowStart, tt.EarlyBird.WindowEnd, tt.EarlyBird.Percent
    }
    if tt.LastMinute != nil {
        lmStart, lmPct = tt.LastMinute.WindowStart, tt.LastMinute.Percent
    }
    if tt.FixedDiscount != nil {
        fixedPct = tt.FixedDiscount.Percent
    }
    if tt.GroupDiscount != nil {
        groupThreshold, groupPct = tt.GroupDiscount.Threshold, tt.GroupDiscount.Percent
    }
    if tt.ValidFrom != nil {
        validFrom = *tt.ValidFrom
    }
    if tt.ValidUntil != nil {
        validUntil = *tt.ValidUntil
    }

    _, err := r.db.ExecContext(ctx, q,
        tt.ID, tt.EventID, tt.Name, tt.BasePriceMinor, tt.MinorUnit, tt.QuantityAvailable,
        string(tt.Tier), ebStart, ebEnd, ebPct,
        lmStart, lmPct, fixedPct,
        groupThreshold, groupPct, validFrom, validUntil,
        tt.MaxPerOrder, tt.Restrictions.MinAge, tt.Restrictions.MaxAge, tt.Restrictions.MemberOnly,
    )
    return err
}

// TicketType loads a single ticket type with its counters and rules.
func (r *TicketTypeRepo) TicketType(ctx context.Context, id string) (*model.TicketType, error) {
    const q = `SELECT id, event_id, name, base_price_minor, minor_unit,
        quantity_available, quantity_sold, quantity_reserved, tier,
        early_bird_start, early_bird_end, early_bird_pct,
        last_minute_start, last_minute_pct, fixed_discount_pct,
        group_threshold, group_pct, valid_from, valid_until,
        max_per_order, min_age, max_age, member_only, created_at, updated_at
        FROM ticket_types WHERE id = ?`
    return scanTicketType(r.db.QueryRowContext(ctx, q, id))
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanTicketType(row rowScanner) (*model.TicketType, error) {
    var tt model.TicketType
    var tier string
    var ebStart, ebEnd, lmStart, validFrom, validUntil sql.NullTime
    var ebPct, lmPct, fixedPct, groupThreshold, groupPct sql.NullInt64

    err := row.Scan(
        &tt.ID, &tt.EventID, &tt.Name, &tt.BasePriceMinor, &tt.MinorUnit,
        &tt.QuantityAvailable, &tt.QuantitySold, &tt.QuantityReserved, &tier,
        &ebStart, &ebEnd, &ebPct,
        &lmStart, &lmPct, &fixedPct,
        &groupThreshold, &groupPct, &validFrom, &validUntil,
        &tt.MaxPerOrder, &tt.Restrictions.MinAge, &tt.Restrictions.MaxAge,
        &tt.Restrictions.MemberOnly, &tt.CreatedAt, &tt.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, model.ErrTicketTypeNotFound
    }
    if err != nil {
        return nil, err
    }

    tt.Tier = model.PricingTier(tier)
    if ebStart.Valid && ebEnd.Valid && ebPct.Valid {
        tt.EarlyBird = &model.EarlyBirdRule{WindowStart: ebStart.Time, WindowEnd: ebEnd.Time, Percent: int(ebPct.Int64)}
    }
    if lmStart.Valid && lmPct.Valid {
        tt.LastMinute = &model.LastMinuteRule{WindowStart: lmStart.Time, Percent: int(lmPct.Int64)}
    }
    if fixedPct.Valid {
        tt.FixedDiscount = &model.FixedDiscountRule{Percent: int(fixedPct.Int64)}
    }
    if groupThreshold.Valid && groupPct.Valid {
        tt.GroupDiscount = &model.GroupDiscountRule{Threshold: int(groupThreshold.Int64), Percent: int(groupPct.Int64)}
    }
    if validFrom.Valid {
        t := validFrom.Time
        tt.ValidFrom = &t
    }
    if validUntil.Valid {
        t := validUntil.Time
        tt.ValidUntil = &t
    }
    return &tt, nil
}

// Reserve atomically checks remaining capacity and increments the
// reserved counter in one UPDATE, then records the hold. Zero affected
// rows means another buyer got there first (or the type is unknown).
func (r *TicketTypeRepo) Reserve(ctx context.Context, ticketTypeID string, quantity int, holderID string, expiresAt time.Time) (string, error) {
    token, err := utils.NewHoldToken(holdTokenBytes)
    if err != nil {
        return "", err
    }

    err = withTx(ctx, r.db, func(tx *sql.Tx) error {
        const upd = `UPDATE ticket_types
            SET quantity_reserved = quantity_reserved + ?
            WHERE id = ? AND quantity_available - quantity_sold - quantity_reserved >= ?`
        res, err := tx.ExecContext(ctx, upd, quantity, ticketTypeID, quantity)
        if err != nil {
            return err
        }
        n, err := res.RowsAffected()
        if err != nil {
            return err
        }
        if n == 0 {
            var exists int
            if err := tx.QueryRowContext(ctx, `SELECT 1 FROM ticket_types WHERE id = ?`, ticketTypeID).Scan(&exists); err != nil {
                if errors.Is(err, sql.ErrNoRows) {
                    return model.ErrTicketTypeNotFound
                }
                return err
            }
            return model.ErrInsufficientInventory
        }

        const ins = `INSERT INTO ticket_holds (token, ticket_type_id, holder_id, quantity, state, expires_at)
            VALUES (?, ?, ?, ?, 'held', ?)`
        _, err = tx.ExecContext(ctx, ins, token, ticketTypeID, holderID, quantity, expiresAt.UTC())
        return err
    })
    if err != nil {
        return "", err
    }
    return token, nil
}

// Commit moves a held quantity from reserved to sold. The hold row is
// locked first so a racing release or sweep serializes behind us.
func (r *TicketTypeRepo) Commit(ctx context.Context, token string) error {
    return withTx(ctx, r.db, func(tx *sql.Tx) error {
        ticketTypeID, quantity, state, err := lockHold(ctx, tx, token)
        if err != nil {
            return err
        }
        if state != model.ReservationHeld {
            return model.ErrReservationNotFound
        }
        if _, err := tx.ExecContext(ctx,
            `UPDATE ticket_holds SET state = 'committed' WHERE token = ?`, token); err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `UPDATE ticket_types SET quantity_reserved = quantity_reserved - ?, quantity_sold = quantity_sold + ? WHERE id = ?`,
            quantity, quantity, ticketTypeID)
        return err
    })
}

// Release returns a held quantity to available. Already-terminal holds
// are reported, not failed, so duplicate cancel and expiry signals are
// harmless.
func (r *TicketTypeRepo) Release(ctx context.Context, token string) (model.ReservationState, error) {
    var prior model.ReservationState
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        ticketTypeID, quantity, state, err := lockHold(ctx, tx, token)
        if err != nil {
            return err
        }
        prior = state
        if state != model.ReservationHeld {
            return nil
        }
        if _, err := tx.ExecContext(ctx,
            `UPDATE ticket_holds SET state = 'released' WHERE token = ?`, token); err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `UPDATE ticket_types SET quantity_reserved = quantity_reserved - ? WHERE id = ?`,
            quantity, ticketTypeID)
        return err
    })
    if err != nil {
        return "", err
    }
    return prior, nil
}

// SweepExpired expires every held token past its expiry and returns
// the reserved quantities to the counters.
func (r *TicketTypeRepo) SweepExpired(ctx context.Context, now time.Time) ([]string, error) {
    var tokens []string
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        const sel = `SELECT token, ticket_type_id, quantity FROM ticket_holds
            WHERE state = 'held' AND expires_at < ? FOR UPDATE`
        rows, err := tx.QueryContext(ctx, sel, now.UTC())
        if err != nil {
            return err
        }
        type expiredHold struct {
            token        string
            ticketTypeID string
            quantity     int
        }
        var expired []expiredHold
        for rows.Next() {
            var h expiredHold
            if err := rows.Scan(&h.token, &h.ticketTypeID, &h.quantity); err != nil {
                rows.Close()
                return err
            }
            expired = append(expired, h)
        }
        if err := rows.Close(); err != nil {
            return err
        }

        for _, h := range expired {
            if _, err := tx.ExecContext(ctx,
                `UPDATE ticket_holds SET state = 'expired' WHERE token = ?`, h.token); err != nil {
                return err
            }
            if _, err := tx.ExecContext(ctx,
                `UPDATE ticket_types SET quantity_reserved = quantity_reserved - ? WHERE id = ?`,
                h.quantity, h.ticketTypeID); err != nil {
                return err
            }
            tokens = append(tokens, h.token)
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    return tokens, nil
}

// lockHold reads a hold row under FOR UPDATE so the caller's state
// check cannot race another transition.
func lockHold(ctx context.Context, tx *sql.Tx, token string) (ticketTypeID string, quantity int, state model.ReservationState, err error) {
    const q = `SELECT ticket_type_id, quantity, state FROM ticket_holds WHERE token = ? FOR UPDATE`
    var s string
    err = tx.QueryRowContext(ctx, q, token).Scan(&ticketTypeID, &quantity, &s)
    if errors.Is(err, sql.ErrNoRows) {
        return "", 0, "", model.ErrReservationNotFound
    }
    if err != nil {
        return "", 0, "", err
    }
    return ticketTypeID, quantity, model.ReservationState(s), nil
}
