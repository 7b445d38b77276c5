package inventory

import (
    "context"
    "sync"
    "time"

    "github.com/seatforge/ticketing/internal/model"
)

// MemoryReservationStore keeps reservation handles in a map. The
// conditional Transition mirrors the SQL implementation's
// UPDATE ... WHERE state = ? so the manager behaves identically on
// either backend.
type MemoryReservationStore struct {
    mu           sync.Mutex
    reservations map[string]*model.Reservation
}

// NewMemoryReservationStore returns an empty in-memory handle store.
func NewMemoryReservationStore() *MemoryReservationStore {
    return &MemoryReservationStore{reservations: make(map[string]*model.Reservation)}
}

func (s *MemoryReservationStore) Create(_ context.Context, r *model.Reservation) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *r
    cp.SeatIDs = append([]string(nil), r.SeatIDs...)
    s.reservations[cp.ID] = &cp
    return nil
}

func (s *MemoryReservationStore) Get(_ context.Context, id string) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.reservations[id]
    if !ok {
        return nil, model.ErrReservationNotFound
    }
    cp := *r
    cp.SeatIDs = append([]string(nil), r.SeatIDs...)
    return &cp, nil
}

func (s *MemoryReservationStore) Transition(_ context.Context, id string, from, to model.ReservationState) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.reservations[id]
    if !ok || r.State != from {
        return model.ErrReservationNotFound
    }
    r.State = to
    return nil
}

func (s *MemoryReservationStore) ExpireHeldBefore(_ context.Context, now time.Time) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for _, r := range s.reservations {
        if r.State == model.ReservationHeld && r.ExpiresAt.Before(now) {
            r.State = model.ReservationExpired
            n++
        }
    }
    return n, nil
}
