package reservation

import (
    "context"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/seatforge/ticketing/internal/model"
)

func TestSweepReclaimsExpiredHolds(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Minute))
    f.seedTicketType(t, standardType())
    f.seedSeats(t, []model.Seat{
        {ID: "s-1", EventID: "ev-1", PriceMinor: 3000, MinorUnit: 2, Status: model.SeatAvailable},
    })

    ga, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 3})
    require.NoError(t, err)
    st, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", SeatIDs: []string{"s-1"}})
    require.NoError(t, err)

    f.clock.Advance(61 * time.Second)
    sw := NewSweeper(f.ga, f.seats, f.records, time.Second, WithSweeperClock(f.clock.Now))
    require.NoError(t, sw.Sweep(context.Background()))

    tt, err := f.ga.TicketType(context.Background(), "tt-1")
    require.NoError(t, err)
    assert.Zero(t, tt.QuantityReserved)

    seats, err := f.seats.Seats(context.Background(), []string{"s-1"})
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seats[0].Status)

    for _, id := range []string{ga.ID, st.ID} {
        rec, err := f.records.Get(context.Background(), id)
        require.NoError(t, err)
        assert.Equal(t, model.ReservationExpired, rec.State)
    }
}

func TestSweepHonoursTTL(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Minute))
    f.seedTicketType(t, standardType())

    _, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 3})
    require.NoError(t, err)

    f.clock.Advance(59 * time.Second)
    sw := NewSweeper(f.ga, f.seats, f.records, time.Second, WithSweeperClock(f.clock.Now))
    require.NoError(t, sw.Sweep(context.Background()))

    tt, err := f.ga.TicketType(context.Background(), "tt-1")
    require.NoError(t, err)
    assert.Equal(t, 3, tt.QuantityReserved, "unexpired hold must survive the sweep")
}

func TestSweepNeverDowngradesCommitted(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Minute))
    f.seedTicketType(t, standardType())

    rec, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 2})
    require.NoError(t, err)
    _, err = f.mgr.Commit(context.Background(), rec.ID)
    require.NoError(t, err)

    f.clock.Advance(2 * time.Minute)
    sw := NewSweeper(f.ga, f.seats, f.records, time.Second, WithSweeperClock(f.clock.Now))
    require.NoError(t, sw.Sweep(context.Background()))

    tt, err := f.ga.TicketType(context.Background(), "tt-1")
    require.NoError(t, err)
    assert.Equal(t, 2, tt.QuantitySold)

    got, err := f.records.Get(context.Background(), rec.ID)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationCommitted, got.State)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Minute))
    f.seedTicketType(t, standardType())
    _, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 3})
    require.NoError(t, err)
    f.clock.Advance(2 * time.Minute)

    rdb, mock := redismock.NewClientMock()
    mock.Regexp().ExpectSetNX(sweepLockKey, `.*`, 5*time.Second).SetVal(false)

    sw := NewSweeper(f.ga, f.seats, f.records, time.Second,
        WithSweeperClock(f.clock.Now),
        WithLeaderLock(rdb, 5*time.Second),
    )
    require.NoError(t, sw.Sweep(context.Background()))
    require.NoError(t, mock.ExpectationsWereMet())

    tt, err := f.ga.TicketType(context.Background(), "tt-1")
    require.NoError(t, err)
    assert.Equal(t, 3, tt.QuantityReserved, "non-leader must not sweep")
}

func TestSweepRunsWhenLockAcquired(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Minute))
    f.seedTicketType(t, standardType())
    _, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 3})
    require.NoError(t, err)
    f.clock.Advance(2 * time.Minute)

    rdb, mock := redismock.NewClientMock()
    mock.Regexp().ExpectSetNX(sweepLockKey, `.*`, 5*time.Second).SetVal(true)
    mock.ExpectDel(sweepLockKey).SetVal(1)

    sw := NewSweeper(f.ga, f.seats, f.records, time.Second,
        WithSweeperClock(f.clock.Now),
        WithLeaderLock(rdb, 5*time.Second),
    )
    require.NoError(t, sw.Sweep(context.Background()))
    require.NoError(t, mock.ExpectationsWereMet())

    tt, err := f.ga.TicketType(context.Background(), "tt-1")
    require.NoError(t, err)
    assert.Zero(t, tt.QuantityReserved)
}

func TestRunStopsOnContextCancel(t *testing.T) {
    f := newFixture(t, WithHoldTTL(time.Millisecond))
    f.seedTicketType(t, standardType())
    _, err := f.mgr.Reserve(context.Background(), ReserveInput{BuyerID: "b", TicketTypeID: "tt-1", Quantity: 1})
    require.NoError(t, err)
    f.clock.Advance(time.Second)

    sw := NewSweeper(f.ga, f.seats, f.records, 5*time.Millisecond, WithSweeperClock(f.clock.Now))
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        sw.Run(ctx)
        close(done)
    }()

    assert.Eventually(t, func() bool {
        tt, err := f.ga.TicketType(context.Background(), "tt-1")
        return err == nil && tt.QuantityReserved == 0
    }, time.Second, 10*time.Millisecond)

    cancel()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("Run did not stop after cancel")
    }
}
