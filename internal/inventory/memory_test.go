package inventory

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/seatforge/ticketing/internal/model"
)

func seedStore(t *testing.T, available int) *MemoryStore {
    t.Helper()
    s := NewMemoryStore()
    err := s.CreateTicketType(context.Background(), &model.TicketType{
        ID:                "tt-1",
        EventID:           "evt-1",
        BasePriceMinor:    2000,
        MinorUnit:         2,
        QuantityAvailable: available,
    })
    require.NoError(t, err)
    return s
}

func TestMemoryStore_ReserveCommitRelease(t *testing.T) {
    ctx := context.Background()
    s := seedStore(t, 10)
    expires := time.Now().UTC().Add(time.Minute)

    token, err := s.Reserve(ctx, "tt-1", 4, "buyer-1", expires)
    require.NoError(t, err)
    require.NotEmpty(t, token)

    tt, err := s.TicketType(ctx, "tt-1")
    require.NoError(t, err)
    assert.Equal(t, 4, tt.QuantityReserved)
    assert.Equal(t, 6, tt.Remaining())

    require.NoError(t, s.Commit(ctx, token))
    tt, _ = s.TicketType(ctx, "tt-1")
    assert.Equal(t, 0, tt.QuantityReserved)
    assert.Equal(t, 4, tt.QuantitySold)

    // Commit is not repeatable: the hold is terminal.
    assert.ErrorIs(t, s.Commit(ctx, token), model.ErrReservationNotFound)

    // Release after commit is a typed no-op reporting the prior state.
    prior, err := s.Release(ctx, token)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationCommitted, prior)
}

func TestMemoryStore_ReleaseIsIdempotent(t *testing.T) {
    ctx := context.Background()
    s := seedStore(t, 5)

    token, err := s.Reserve(ctx, "tt-1", 2, "buyer-1", time.Now().UTC().Add(time.Minute))
    require.NoError(t, err)

    prior, err := s.Release(ctx, token)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationHeld, prior)

    prior, err = s.Release(ctx, token)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationReleased, prior)

    tt, _ := s.TicketType(ctx, "tt-1")
    assert.Equal(t, 5, tt.Remaining())
}

func TestMemoryStore_InsufficientInventory(t *testing.T) {
    ctx := context.Background()
    s := seedStore(t, 3)

    _, err := s.Reserve(ctx, "tt-1", 4, "buyer-1", time.Now().UTC().Add(time.Minute))
    assert.ErrorIs(t, err, model.ErrInsufficientInventory)

    tt, _ := s.TicketType(ctx, "tt-1")
    assert.Equal(t, 0, tt.QuantityReserved)
}

// N concurrent single-ticket reserves against M < N units: exactly M
// succeed, the rest observe ErrInsufficientInventory, and the counter
// invariant holds afterwards.
func TestMemoryStore_ConcurrentReservesNeverOversell(t *testing.T) {
    const racers = 50
    const units = 7

    ctx := context.Background()
    s := seedStore(t, units)
    expires := time.Now().UTC().Add(time.Minute)

    var wg sync.WaitGroup
    results := make(chan error, racers)
    for i := 0; i < racers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := s.Reserve(ctx, "tt-1", 1, "buyer", expires)
            results <- err
        }()
    }
    wg.Wait()
    close(results)

    won, lost := 0, 0
    for err := range results {
        switch {
        case err == nil:
            won++
        case assert.ErrorIs(t, err, model.ErrInsufficientInventory):
            lost++
        }
    }
    assert.Equal(t, units, won)
    assert.Equal(t, racers-units, lost)

    tt, _ := s.TicketType(ctx, "tt-1")
    assert.LessOrEqual(t, tt.QuantitySold+tt.QuantityReserved, tt.QuantityAvailable)
    assert.Equal(t, units, tt.QuantityReserved)
}

func TestMemoryStore_SweepReleasesOnlyExpired(t *testing.T) {
    ctx := context.Background()
    s := seedStore(t, 10)
    now := time.Now().UTC()

    expired, err := s.Reserve(ctx, "tt-1", 2, "buyer-1", now.Add(-time.Second))
    require.NoError(t, err)
    fresh, err := s.Reserve(ctx, "tt-1", 3, "buyer-2", now.Add(time.Minute))
    require.NoError(t, err)

    tokens, err := s.SweepExpired(ctx, now)
    require.NoError(t, err)
    assert.Equal(t, []string{expired}, tokens)

    tt, _ := s.TicketType(ctx, "tt-1")
    assert.Equal(t, 3, tt.QuantityReserved)

    // The expired token is terminal; the fresh hold still commits.
    assert.ErrorIs(t, s.Commit(ctx, expired), model.ErrReservationNotFound)
    assert.NoError(t, s.Commit(ctx, fresh))
}

func seedSeats(t *testing.T, ids ...string) *MemorySeatStore {
    t.Helper()
    s := NewMemorySeatStore()
    seats := make([]model.Seat, 0, len(ids))
    for i, id := range ids {
        seats = append(seats, model.Seat{
            ID:         id,
            EventID:    "evt-1",
            ChartID:    "chart-1",
            Section:    "A",
            RowLabel:   "A",
            Position:   i + 1,
            PriceMinor: 2500,
            MinorUnit:  2,
        })
    }
    require.NoError(t, s.CreateSeats(context.Background(), seats))
    return s
}

func TestMemorySeatStore_ReserveAllOrNothing(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2", "s3")
    expires := time.Now().UTC().Add(time.Minute)

    require.NoError(t, s.ReserveSeats(ctx, []string{"s2"}, "buyer-1", expires))

    err := s.ReserveSeats(ctx, []string{"s1", "s2", "s3"}, "buyer-2", expires)
    require.Error(t, err)
    assert.ErrorIs(t, err, model.ErrAlreadyReserved)

    var conflict *model.SeatConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"s2"}, conflict.SeatIDs)

    // s1 and s3 must not be stranded in reserved.
    seats, err := s.Seats(ctx, []string{"s1", "s3"})
    require.NoError(t, err)
    for _, seat := range seats {
        assert.Equal(t, model.SeatAvailable, seat.Status)
    }
}

// Two buyers race for the same three seats: exactly one call wins all
// of them, the loser gets a conflict and mutates nothing.
func TestMemorySeatStore_ConcurrentReserveSameSet(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2", "s3", "s4", "s5")
    expires := time.Now().UTC().Add(time.Minute)
    want := []string{"s1", "s2", "s3"}

    errs := make(chan error, 2)
    var wg sync.WaitGroup
    for _, buyer := range []string{"buyer-1", "buyer-2"} {
        wg.Add(1)
        go func(b string) {
            defer wg.Done()
            errs <- s.ReserveSeats(ctx, want, b, expires)
        }(buyer)
    }
    wg.Wait()
    close(errs)

    won, lost := 0, 0
    for err := range errs {
        if err == nil {
            won++
        } else if assert.ErrorIs(t, err, model.ErrAlreadyReserved) {
            lost++
        }
    }
    assert.Equal(t, 1, won)
    assert.Equal(t, 1, lost)

    seats, err := s.Seats(ctx, want)
    require.NoError(t, err)
    holder := seats[0].ReservedBy
    for _, seat := range seats {
        assert.Equal(t, model.SeatReserved, seat.Status)
        assert.Equal(t, holder, seat.ReservedBy, "split holds would strand seats")
    }
}

func TestMemorySeatStore_CommitChecksHolder(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2")
    expires := time.Now().UTC().Add(time.Minute)

    require.NoError(t, s.ReserveSeats(ctx, []string{"s1"}, "buyer-1", expires))
    require.NoError(t, s.ReserveSeats(ctx, []string{"s2"}, "buyer-2", expires))

    err := s.CommitSeats(ctx, []string{"s1", "s2"}, "buyer-1")
    var conflict *model.SeatConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"s2"}, conflict.SeatIDs)

    // Nothing partial: s1 stays reserved.
    seats, _ := s.Seats(ctx, []string{"s1"})
    assert.Equal(t, model.SeatReserved, seats[0].Status)

    require.NoError(t, s.CommitSeats(ctx, []string{"s1"}, "buyer-1"))
    seats, _ = s.Seats(ctx, []string{"s1"})
    assert.Equal(t, model.SeatSold, seats[0].Status)
}

func TestMemorySeatStore_ReleaseSkipsSoldAndBlocked(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2", "s3")
    expires := time.Now().UTC().Add(time.Minute)

    require.NoError(t, s.ReserveSeats(ctx, []string{"s1", "s2"}, "buyer-1", expires))
    require.NoError(t, s.CommitSeats(ctx, []string{"s1"}, "buyer-1"))
    require.NoError(t, s.Block(ctx, []string{"s3"}))

    released, err := s.ReleaseSeats(ctx, []string{"s1", "s2", "s3"})
    require.NoError(t, err)
    assert.Equal(t, 1, released)

    seats, _ := s.Seats(ctx, []string{"s1", "s2", "s3"})
    assert.Equal(t, model.SeatSold, seats[0].Status)
    assert.Equal(t, model.SeatAvailable, seats[1].Status)
    assert.Equal(t, model.SeatBlocked, seats[2].Status)
}

// A seat committed between sweep selection and sweep mutation must not
// be downgraded: the sweep re-checks reserved status, so committing
// first always wins.
func TestMemorySeatStore_SweepNeverDowngradesSold(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2")
    now := time.Now().UTC()

    require.NoError(t, s.ReserveSeats(ctx, []string{"s1", "s2"}, "buyer-1", now.Add(-time.Second)))
    require.NoError(t, s.CommitSeats(ctx, []string{"s1"}, "buyer-1"))

    released, err := s.SweepExpired(ctx, now)
    require.NoError(t, err)
    assert.Equal(t, 1, released)

    seats, _ := s.Seats(ctx, []string{"s1", "s2"})
    assert.Equal(t, model.SeatSold, seats[0].Status)
    assert.Equal(t, model.SeatAvailable, seats[1].Status)
}

func TestMemorySeatStore_SweepHonoursTTL(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1")
    now := time.Now().UTC()

    require.NoError(t, s.ReserveSeats(ctx, []string{"s1"}, "buyer-1", now.Add(60*time.Second)))

    // Before the TTL lapses the hold must survive the sweep.
    released, err := s.SweepExpired(ctx, now.Add(59*time.Second))
    require.NoError(t, err)
    assert.Zero(t, released)

    released, err = s.SweepExpired(ctx, now.Add(61*time.Second))
    require.NoError(t, err)
    assert.Equal(t, 1, released)

    seats, _ := s.Seats(ctx, []string{"s1"})
    assert.Equal(t, model.SeatAvailable, seats[0].Status)
}

func TestMemorySeatStore_BlockAndUnblock(t *testing.T) {
    ctx := context.Background()
    s := seedSeats(t, "s1", "s2")
    expires := time.Now().UTC().Add(time.Minute)

    require.NoError(t, s.ReserveSeats(ctx, []string{"s1"}, "buyer-1", expires))
    require.NoError(t, s.Block(ctx, []string{"s1", "s2"}))

    seats, _ := s.Seats(ctx, []string{"s1", "s2"})
    for _, seat := range seats {
        assert.Equal(t, model.SeatBlocked, seat.Status)
        assert.Empty(t, seat.ReservedBy)
    }

    require.NoError(t, s.Unblock(ctx, []string{"s1"}))
    seats, _ = s.Seats(ctx, []string{"s1"})
    assert.Equal(t, model.SeatAvailable, seats[0].Status)
}

func TestMemoryReservationStore_ConditionalTransition(t *testing.T) {
    ctx := context.Background()
    s := NewMemoryReservationStore()
    now := time.Now().UTC()

    r := &model.Reservation{
        ID:        "res-1",
        Kind:      model.KindSeats,
        BuyerID:   "buyer-1",
        EventID:   "evt-1",
        SeatIDs:   []string{"s1"},
        State:     model.ReservationHeld,
        CreatedAt: now,
        ExpiresAt: now.Add(time.Minute),
    }
    require.NoError(t, s.Create(ctx, r))

    require.NoError(t, s.Transition(ctx, "res-1", model.ReservationHeld, model.ReservationCommitted))
    // Second transition from held must lose.
    assert.ErrorIs(t,
        s.Transition(ctx, "res-1", model.ReservationHeld, model.ReservationExpired),
        model.ErrReservationNotFound)

    got, err := s.Get(ctx, "res-1")
    require.NoError(t, err)
    assert.Equal(t, model.ReservationCommitted, got.State)

    _, err = s.Get(ctx, "missing")
    assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestMemoryReservationStore_ExpireHeldBefore(t *testing.T) {
    ctx := context.Background()
    s := NewMemoryReservationStore()
    now := time.Now().UTC()

    for _, r := range []*model.Reservation{
        {ID: "r1", State: model.ReservationHeld, ExpiresAt: now.Add(-time.Second)},
        {ID: "r2", State: model.ReservationHeld, ExpiresAt: now.Add(time.Minute)},
        {ID: "r3", State: model.ReservationCommitted, ExpiresAt: now.Add(-time.Hour)},
    } {
        require.NoError(t, s.Create(ctx, r))
    }

    n, err := s.ExpireHeldBefore(ctx, now)
    require.NoError(t, err)
    assert.Equal(t, 1, n)

    r1, _ := s.Get(ctx, "r1")
    assert.Equal(t, model.ReservationExpired, r1.State)
    r3, _ := s.Get(ctx, "r3")
    assert.Equal(t, model.ReservationCommitted, r3.State)
}
