package inventory

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/seatforge/ticketing/internal/model"
)

// MemorySeatStore is the in-process SeatStore implementation. As with
// MemoryStore, one mutex makes every bulk operation a single critical
// section, so all-or-nothing semantics need no rollback: conflicts are
// detected before any seat is flipped.
type MemorySeatStore struct {
    mu    sync.Mutex
    seats map[string]*model.Seat
}

// NewMemorySeatStore returns an empty in-memory seat store.
func NewMemorySeatStore() *MemorySeatStore {
    return &MemorySeatStore{seats: make(map[string]*model.Seat)}
}

func (s *MemorySeatStore) CreateSeats(_ context.Context, seats []model.Seat) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now().UTC()
    for _, seat := range seats {
        cp := seat
        if cp.Status == "" {
            cp.Status = model.SeatAvailable
        }
        cp.CreatedAt = now
        cp.UpdatedAt = now
        s.seats[cp.ID] = &cp
    }
    return nil
}

func (s *MemorySeatStore) Seats(_ context.Context, seatIDs []string) ([]model.Seat, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Seat, 0, len(seatIDs))
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok {
            return nil, model.ErrSeatNotFound
        }
        out = append(out, *seat)
    }
    return out, nil
}

func (s *MemorySeatStore) SeatsByEvent(_ context.Context, eventID string) ([]model.Seat, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Seat
    for _, seat := range s.seats {
        if seat.EventID == eventID {
            out = append(out, *seat)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Section != out[j].Section {
            return out[i].Section < out[j].Section
        }
        if out[i].RowLabel != out[j].RowLabel {
            return out[i].RowLabel < out[j].RowLabel
        }
        return out[i].Position < out[j].Position
    })
    return out, nil
}

func (s *MemorySeatStore) ReserveSeats(_ context.Context, seatIDs []string, holderID string, expiresAt time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    // Check the whole set before flipping anything.
    var conflicts []string
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok {
            return model.ErrSeatNotFound
        }
        if seat.Status != model.SeatAvailable {
            conflicts = append(conflicts, id)
        }
    }
    if len(conflicts) > 0 {
        return &model.SeatConflictError{SeatIDs: conflicts}
    }

    now := time.Now().UTC()
    for _, id := range seatIDs {
        seat := s.seats[id]
        until := expiresAt
        seat.Status = model.SeatReserved
        seat.ReservedBy = holderID
        seat.ReservedUntil = &until
        seat.UpdatedAt = now
    }
    return nil
}

func (s *MemorySeatStore) CommitSeats(_ context.Context, seatIDs []string, holderID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    var conflicts []string
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok {
            return model.ErrSeatNotFound
        }
        if seat.Status != model.SeatReserved || seat.ReservedBy != holderID {
            conflicts = append(conflicts, id)
        }
    }
    if len(conflicts) > 0 {
        return &model.SeatConflictError{SeatIDs: conflicts}
    }

    now := time.Now().UTC()
    for _, id := range seatIDs {
        seat := s.seats[id]
        seat.Status = model.SeatSold
        seat.ReservedBy = ""
        seat.ReservedUntil = nil
        seat.UpdatedAt = now
    }
    return nil
}

func (s *MemorySeatStore) ReleaseSeats(_ context.Context, seatIDs []string) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    released := 0
    now := time.Now().UTC()
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok || seat.Status != model.SeatReserved {
            continue // sold and blocked seats are untouched
        }
        s.freeLocked(seat, now)
        released++
    }
    return released, nil
}

func (s *MemorySeatStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    released := 0
    for _, seat := range s.seats {
        if seat.Status == model.SeatReserved && seat.ReservedUntil != nil && seat.ReservedUntil.Before(now) {
            s.freeLocked(seat, now)
            released++
        }
    }
    return released, nil
}

func (s *MemorySeatStore) Block(_ context.Context, seatIDs []string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    var conflicts []string
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok {
            return model.ErrSeatNotFound
        }
        if seat.Status == model.SeatSold {
            conflicts = append(conflicts, id)
        }
    }
    if len(conflicts) > 0 {
        return &model.SeatConflictError{SeatIDs: conflicts}
    }

    now := time.Now().UTC()
    for _, id := range seatIDs {
        seat := s.seats[id]
        seat.Status = model.SeatBlocked
        seat.ReservedBy = ""
        seat.ReservedUntil = nil
        seat.UpdatedAt = now
    }
    return nil
}

func (s *MemorySeatStore) Unblock(_ context.Context, seatIDs []string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    now := time.Now().UTC()
    for _, id := range seatIDs {
        seat, ok := s.seats[id]
        if !ok {
            return model.ErrSeatNotFound
        }
        if seat.Status == model.SeatBlocked {
            seat.Status = model.SeatAvailable
            seat.UpdatedAt = now
        }
    }
    return nil
}

func (s *MemorySeatStore) freeLocked(seat *model.Seat, now time.Time) {
    seat.Status = model.SeatAvailable
    seat.ReservedBy = ""
    seat.ReservedUntil = nil
    seat.UpdatedAt = now
}
