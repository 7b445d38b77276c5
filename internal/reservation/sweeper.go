package reservation

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"

    "github.com/seatforge/ticketing/internal/inventory"
    "github.com/seatforge/ticketing/internal/monitoring"
)

const sweepLockKey = "ticketing:sweep:leader"

// Sweeper reclaims expired holds on a fixed interval. When a redis
// client is configured, SETNX on a shared key elects one instance per
// tick so replicas do not sweep concurrently; without redis every
// instance sweeps, which is safe because all mutations re-check status.
type Sweeper struct {
    ga       inventory.Store
    seats    inventory.SeatStore
    records  inventory.ReservationStore
    rdb      *redis.Client
    interval time.Duration
    lockTTL  time.Duration
    now      func() time.Time
    id       string
}

// SweeperOption customises a Sweeper.
type SweeperOption func(*Sweeper)

// WithLeaderLock enables the redis leader election with the given lock
// lifetime.
func WithLeaderLock(rdb *redis.Client, ttl time.Duration) SweeperOption {
    return func(s *Sweeper) {
        s.rdb = rdb
        if ttl > 0 {
            s.lockTTL = ttl
        }
    }
}

// WithSweeperClock injects the time source for tests.
func WithSweeperClock(now func() time.Time) SweeperOption {
    return func(s *Sweeper) {
        if now != nil {
            s.now = now
        }
    }
}

// NewSweeper builds a Sweeper over the three stores.
func NewSweeper(ga inventory.Store, seats inventory.SeatStore, records inventory.ReservationStore, interval time.Duration, opts ...SweeperOption) *Sweeper {
    if interval <= 0 {
        interval = 30 * time.Second
    }
    s := &Sweeper{
        ga:       ga,
        seats:    seats,
        records:  records,
        interval: interval,
        lockTTL:  interval,
        now:      time.Now,
        id:       uuid.NewString(),
    }
    for _, opt := range opts {
        opt(s)
    }
    return s
}

// Run sweeps on every tick until the context is cancelled. Errors are
// logged and retried on the next tick; a failed sweep never stops the
// loop.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := s.Sweep(ctx); err != nil {
                log.Printf("sweeper: %v", err)
            }
        }
    }
}

// Sweep runs one reclaim pass: expired GA holds, expired seat holds,
// then the reservation records they backed. The order means a record
// can briefly say held while its capacity is already back, never the
// reverse.
func (s *Sweeper) Sweep(ctx context.Context) error {
    if s.rdb != nil {
        ok, err := s.rdb.SetNX(ctx, sweepLockKey, s.id, s.lockTTL).Result()
        if err != nil {
            monitoring.TrackSweep("lock_error", 0, 0)
            return fmt.Errorf("acquiring sweep lock: %w", err)
        }
        if !ok {
            return nil // another instance holds the lock this tick
        }
        defer s.rdb.Del(context.WithoutCancel(ctx), sweepLockKey)
    }

    now := s.now()

    tokens, err := s.ga.SweepExpired(ctx, now)
    if err != nil {
        monitoring.TrackSweep("error", 0, 0)
        return fmt.Errorf("sweeping ga holds: %w", err)
    }

    seatCount, err := s.seats.SweepExpired(ctx, now)
    if err != nil {
        monitoring.TrackSweep("error", len(tokens), 0)
        return fmt.Errorf("sweeping seat holds: %w", err)
    }

    expired, err := s.records.ExpireHeldBefore(ctx, now)
    if err != nil {
        monitoring.TrackSweep("error", len(tokens), seatCount)
        return fmt.Errorf("expiring reservations: %w", err)
    }

    monitoring.TrackSweep("ok", len(tokens), seatCount)
    if len(tokens) > 0 || seatCount > 0 || expired > 0 {
        log.Printf("sweeper: released %d ga holds, %d seats, expired %d reservations", len(tokens), seatCount, expired)
    }
    return nil
}
