// Package reservation orchestrates the hold lifecycle: quoting a
// price, placing a hold against the inventory stores, and moving the
// hold to committed or released. The stores own every counter and seat
// row; this package owns the reservation handles and the ordering of
// record transitions against store mutations.
package reservation

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/seatforge/ticketing/internal/inventory"
    "github.com/seatforge/ticketing/internal/model"
    "github.com/seatforge/ticketing/internal/monitoring"
    "github.com/seatforge/ticketing/internal/pricing"
    "github.com/seatforge/ticketing/internal/queue"
)

// DefaultHoldTTL is how long a hold stays reservable before the sweep
// reclaims it.
const DefaultHoldTTL = 10 * time.Minute

// EventPublisher delivers reservation lifecycle events to the broker.
// Publishing failures must not fail the reservation itself, so the
// manager logs and moves on when Publish errors.
type EventPublisher interface {
    Publish(ctx context.Context, queueName string, ev queue.ReservationEvent) error
}

// Manager coordinates quotes and holds over the inventory stores.
type Manager struct {
    ga        inventory.Store
    seats     inventory.SeatStore
    records   inventory.ReservationStore
    publisher EventPublisher
    holdTTL   time.Duration
    now       func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(ttl time.Duration) Option {
    return func(m *Manager) {
        if ttl > 0 {
            m.holdTTL = ttl
        }
    }
}

// WithClock injects the time source, used by tests to pin the clock.
func WithClock(now func() time.Time) Option {
    return func(m *Manager) {
        if now != nil {
            m.now = now
        }
    }
}

// WithPublisher attaches a broker publisher for lifecycle events.
func WithPublisher(p EventPublisher) Option {
    return func(m *Manager) { m.publisher = p }
}

// NewManager wires a Manager over the three stores.
func NewManager(ga inventory.Store, seats inventory.SeatStore, records inventory.ReservationStore, opts ...Option) *Manager {
    m := &Manager{
        ga:      ga,
        seats:   seats,
        records: records,
        holdTTL: DefaultHoldTTL,
        now:     time.Now,
    }
    for _, opt := range opts {
        opt(m)
    }
    return m
}

// QuoteResult is a priced order before any hold is placed. Quoting
// never mutates inventory, so the numbers are only advisory until
// Reserve captures them on a handle.
type QuoteResult struct {
    TicketTypeID   string `json:"ticket_type_id"`
    Quantity       int    `json:"quantity"`
    UnitPriceMinor int64  `json:"unit_price_minor"`
    PerTicketMinor int64  `json:"per_ticket_minor"`
    TotalMinor     int64  `json:"total_minor"`
    DiscountMinor  int64  `json:"discount_minor"`
    MinorUnit      int32  `json:"minor_unit"`
    AppliedRule    string `json:"applied_rule"`
    GroupApplied   bool   `json:"group_applied"`
}

// Quote prices quantity tickets of a type at the current instant. The
// time-based rule picks the unit price; the group rule, when the
// quantity reaches its threshold, layers on top.
func (m *Manager) Quote(ctx context.Context, ticketTypeID string, quantity int) (*QuoteResult, error) {
    tt, err := m.ga.TicketType(ctx, ticketTypeID)
    if err != nil {
        return nil, err
    }

    base, err := pricing.ComputePrice(tt, quantity, m.now())
    if err != nil {
        return nil, err
    }
    grp, err := pricing.ComputeGroupPrice(tt, base.UnitPrice, quantity)
    if err != nil {
        return nil, err
    }

    rule := base.AppliedRule
    if grp.ThresholdApplied {
        rule = pricing.RuleGroupDiscount
    }
    return &QuoteResult{
        TicketTypeID:   tt.ID,
        Quantity:       quantity,
        UnitPriceMinor: base.UnitPriceMinor,
        PerTicketMinor: grp.PerTicketMinor,
        TotalMinor:     grp.TotalMinor,
        DiscountMinor:  grp.DiscountMinor,
        MinorUnit:      tt.MinorUnit,
        AppliedRule:    rule,
        GroupApplied:   grp.ThresholdApplied,
    }, nil
}

// ReserveInput describes one hold request. TicketTypeID with a
// Quantity places a general-admission hold; SeatIDs places a seat-set
// hold instead. BuyerAge zero means the age was not supplied.
type ReserveInput struct {
    BuyerID      string   `json:"buyer_id"`
    BuyerAge     int      `json:"buyer_age,omitempty"`
    IsMember     bool     `json:"is_member,omitempty"`
    TicketTypeID string   `json:"ticket_type_id,omitempty"`
    Quantity     int      `json:"quantity,omitempty"`
    EventID      string   `json:"event_id,omitempty"`
    SeatIDs      []string `json:"seat_ids,omitempty"`
}

// Reserve validates the request, prices it, and places the hold. All
// validation runs before any store mutation, so a rejected request
// leaves the inventory untouched.
func (m *Manager) Reserve(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
    if in.BuyerID == "" {
        return nil, model.ErrInvalidPricingInput
    }
    if len(in.SeatIDs) > 0 {
        return m.reserveSeats(ctx, in)
    }
    return m.reserveGA(ctx, in)
}

func (m *Manager) reserveGA(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
    if in.Quantity < 1 {
        monitoring.TrackOperation("ga", "reserve", "invalid")
        return nil, model.ErrInvalidPricingInput
    }

    tt, err := m.ga.TicketType(ctx, in.TicketTypeID)
    if err != nil {
        monitoring.TrackOperation("ga", "reserve", "error")
        return nil, err
    }

    now := m.now()
    if err := checkRestrictions(tt, in, now); err != nil {
        monitoring.TrackOperation("ga", "reserve", "rejected")
        return nil, err
    }

    base, err := pricing.ComputePrice(tt, in.Quantity, now)
    if err != nil {
        monitoring.TrackOperation("ga", "reserve", "invalid")
        return nil, err
    }
    grp, err := pricing.ComputeGroupPrice(tt, base.UnitPrice, in.Quantity)
    if err != nil {
        monitoring.TrackOperation("ga", "reserve", "invalid")
        return nil, err
    }

    expiresAt := now.Add(m.holdTTL)
    token, err := m.ga.Reserve(ctx, tt.ID, in.Quantity, in.BuyerID, expiresAt)
    if err != nil {
        monitoring.TrackOperation("ga", "reserve", "conflict")
        return nil, err
    }

    rule := base.AppliedRule
    if grp.ThresholdApplied {
        rule = pricing.RuleGroupDiscount
    }
    rec := &model.Reservation{
        ID:             uuid.NewString(),
        Kind:           model.KindGeneralAdmission,
        BuyerID:        in.BuyerID,
        EventID:        tt.EventID,
        TicketTypeID:   tt.ID,
        Quantity:       in.Quantity,
        HoldToken:      token,
        UnitPriceMinor: grp.PerTicketMinor,
        TotalMinor:     grp.TotalMinor,
        AppliedRule:    rule,
        State:          model.ReservationHeld,
        CreatedAt:      now,
        ExpiresAt:      expiresAt,
    }
    if err := m.records.Create(ctx, rec); err != nil {
        if _, relErr := m.ga.Release(ctx, token); relErr != nil {
            log.Printf("reserve: releasing orphaned hold %s: %v", token, relErr)
        }
        monitoring.TrackOperation("ga", "reserve", "error")
        return nil, err
    }

    monitoring.TrackOperation("ga", "reserve", "ok")
    return rec, nil
}

func (m *Manager) reserveSeats(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
    seatIDs := dedupe(in.SeatIDs)
    seats, err := m.seats.Seats(ctx, seatIDs)
    if err != nil {
        monitoring.TrackOperation("seats", "reserve", "error")
        return nil, err
    }

    var total int64
    eventID := in.EventID
    for _, s := range seats {
        if eventID == "" {
            eventID = s.EventID
        } else if s.EventID != eventID {
            monitoring.TrackOperation("seats", "reserve", "invalid")
            return nil, model.ErrInvalidPricingInput
        }
        total += s.PriceMinor
    }

    now := m.now()
    expiresAt := now.Add(m.holdTTL)
    if err := m.seats.ReserveSeats(ctx, seatIDs, in.BuyerID, expiresAt); err != nil {
        monitoring.TrackOperation("seats", "reserve", "conflict")
        return nil, err
    }

    rec := &model.Reservation{
        ID:         uuid.NewString(),
        Kind:       model.KindSeats,
        BuyerID:    in.BuyerID,
        EventID:    eventID,
        Quantity:   len(seatIDs),
        SeatIDs:    seatIDs,
        TotalMinor: total,
        State:      model.ReservationHeld,
        CreatedAt:  now,
        ExpiresAt:  expiresAt,
    }
    if err := m.records.Create(ctx, rec); err != nil {
        if _, relErr := m.seats.ReleaseSeats(ctx, seatIDs); relErr != nil {
            log.Printf("reserve: releasing orphaned seats %v: %v", seatIDs, relErr)
        }
        monitoring.TrackOperation("seats", "reserve", "error")
        return nil, err
    }

    monitoring.TrackOperation("seats", "reserve", "ok")
    return rec, nil
}

// Commit finalises a held reservation. The record flips held→committed
// first, which loses cleanly to a concurrent sweep that already marked
// the hold expired; only then does the store move reserved capacity to
// sold. If the store refuses the record is rolled back to released so
// capacity and record never disagree.
func (m *Manager) Commit(ctx context.Context, id string) (*model.Reservation, error) {
    rec, err := m.records.Get(ctx, id)
    if err != nil {
        return nil, err
    }
    kind := string(rec.Kind)

    now := m.now()
    if rec.State != model.ReservationHeld || !rec.ExpiresAt.After(now) {
        monitoring.TrackOperation(kind, "commit", "conflict")
        return nil, model.ErrReservationNotFound
    }

    if err := m.records.Transition(ctx, id, model.ReservationHeld, model.ReservationCommitted); err != nil {
        monitoring.TrackOperation(kind, "commit", "conflict")
        return nil, err
    }

    switch rec.Kind {
    case model.KindGeneralAdmission:
        err = m.ga.Commit(ctx, rec.HoldToken)
    case model.KindSeats:
        err = m.seats.CommitSeats(ctx, rec.SeatIDs, rec.BuyerID)
    default:
        err = model.ErrReservationNotFound
    }
    if err != nil {
        if revErr := m.records.Transition(ctx, id, model.ReservationCommitted, model.ReservationReleased); revErr != nil {
            log.Printf("commit: reverting reservation %s: %v", id, revErr)
        }
        monitoring.TrackOperation(kind, "commit", "conflict")
        return nil, err
    }

    rec.State = model.ReservationCommitted
    m.publish(ctx, queue.QueueReservationCommitted, rec)
    monitoring.TrackOperation(kind, "commit", "ok")
    monitoring.TrackHoldDuration(kind, "committed", now.Sub(rec.CreatedAt))
    return rec, nil
}

// Release cancels a hold and returns its capacity. Safe to call any
// number of times and in any state: a terminal reservation is returned
// as-is without touching the stores.
func (m *Manager) Release(ctx context.Context, id string) (*model.Reservation, error) {
    rec, err := m.records.Get(ctx, id)
    if err != nil {
        return nil, err
    }
    kind := string(rec.Kind)

    if rec.State.Terminal() {
        monitoring.TrackOperation(kind, "release", "noop")
        return rec, nil
    }

    if err := m.records.Transition(ctx, id, model.ReservationHeld, model.ReservationReleased); err != nil {
        // Lost to a concurrent commit or sweep; report what won.
        if errors.Is(err, model.ErrReservationNotFound) {
            return m.records.Get(ctx, id)
        }
        return nil, err
    }

    switch rec.Kind {
    case model.KindGeneralAdmission:
        if _, err := m.ga.Release(ctx, rec.HoldToken); err != nil {
            log.Printf("release: hold %s: %v", rec.HoldToken, err)
        }
    case model.KindSeats:
        if _, err := m.seats.ReleaseSeats(ctx, rec.SeatIDs); err != nil {
            log.Printf("release: seats %v: %v", rec.SeatIDs, err)
        }
    }

    now := m.now()
    rec.State = model.ReservationReleased
    m.publish(ctx, queue.QueueReservationReleased, rec)
    monitoring.TrackOperation(kind, "release", "ok")
    monitoring.TrackHoldDuration(kind, "released", now.Sub(rec.CreatedAt))
    return rec, nil
}

// Get returns the reservation handle by id.
func (m *Manager) Get(ctx context.Context, id string) (*model.Reservation, error) {
    return m.records.Get(ctx, id)
}

func (m *Manager) publish(ctx context.Context, queueName string, rec *model.Reservation) {
    if m.publisher == nil {
        return
    }
    ev := queue.ReservationEvent{
        ReservationID: rec.ID,
        Kind:          string(rec.Kind),
        BuyerID:       rec.BuyerID,
        EventID:       rec.EventID,
        TicketTypeID:  rec.TicketTypeID,
        SeatIDs:       rec.SeatIDs,
        Quantity:      rec.Quantity,
        TotalMinor:    rec.TotalMinor,
        State:         string(rec.State),
        OccurredAt:    m.now().UTC().Format(time.RFC3339),
    }
    if err := m.publisher.Publish(ctx, queueName, ev); err != nil {
        log.Printf("publish %s for reservation %s: %v", queueName, rec.ID, err)
    }
}

// checkRestrictions enforces the ticket type's eligibility rules. Runs
// before any mutation.
func checkRestrictions(tt *model.TicketType, in ReserveInput, now time.Time) error {
    if !tt.SaleOpen(now) {
        return model.ErrSaleClosed
    }
    if tt.MaxPerOrder > 0 && in.Quantity > tt.MaxPerOrder {
        return model.ErrMaxPerOrderExceeded
    }
    r := tt.Restrictions
    if r.MemberOnly && !in.IsMember {
        return model.ErrRestrictionViolation
    }
    if r.MinAge > 0 && (in.BuyerAge == 0 || in.BuyerAge < r.MinAge) {
        return model.ErrRestrictionViolation
    }
    if r.MaxAge > 0 && in.BuyerAge > r.MaxAge {
        return model.ErrRestrictionViolation
    }
    return nil
}

func dedupe(ids []string) []string {
    seen := make(map[string]struct{}, len(ids))
    out := make([]string, 0, len(ids))
    for _, id := range ids {
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
