package inventory

import (
    "context"
    "sync"
    "time"

    "github.com/seatforge/ticketing/internal/model"
    "github.com/seatforge/ticketing/internal/utils"
)

const holdTokenBytes = 16

// gaHold tracks one issued general-admission hold so commit and
// release can move the right quantity later.
type gaHold struct {
    token        string
    ticketTypeID string
    holderID     string
    quantity     int
    state        model.ReservationState
    expiresAt    time.Time
}

// MemoryStore is the in-process Store implementation. A single mutex
// serializes every check-and-mutate critical section, which is the
// whole trick: under the lock the availability check and the counter
// increment are one step, so racing reserves for the last ticket
// cannot both pass the check.
type MemoryStore struct {
    mu    sync.Mutex
    types map[string]*model.TicketType
    holds map[string]*gaHold
}

// NewMemoryStore returns an empty in-memory inventory store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        types: make(map[string]*model.TicketType),
        holds: make(map[string]*gaHold),
    }
}

func (s *MemoryStore) CreateTicketType(_ context.Context, tt *model.TicketType) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *tt
    now := time.Now().UTC()
    cp.CreatedAt = now
    cp.UpdatedAt = now
    s.types[cp.ID] = &cp
    return nil
}

func (s *MemoryStore) TicketType(_ context.Context, id string) (*model.TicketType, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    tt, ok := s.types[id]
    if !ok {
        return nil, model.ErrTicketTypeNotFound
    }
    cp := *tt
    return &cp, nil
}

func (s *MemoryStore) Reserve(_ context.Context, ticketTypeID string, quantity int, holderID string, expiresAt time.Time) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    tt, ok := s.types[ticketTypeID]
    if !ok {
        return "", model.ErrTicketTypeNotFound
    }
    if quantity > tt.Remaining() {
        return "", model.ErrInsufficientInventory
    }

    token, err := utils.NewHoldToken(holdTokenBytes)
    if err != nil {
        return "", err
    }

    tt.QuantityReserved += quantity
    tt.UpdatedAt = time.Now().UTC()
    s.holds[token] = &gaHold{
        token:        token,
        ticketTypeID: ticketTypeID,
        holderID:     holderID,
        quantity:     quantity,
        state:        model.ReservationHeld,
        expiresAt:    expiresAt,
    }
    return token, nil
}

func (s *MemoryStore) Commit(_ context.Context, token string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    h, ok := s.holds[token]
    if !ok || h.state != model.ReservationHeld {
        return model.ErrReservationNotFound
    }
    tt := s.types[h.ticketTypeID]
    tt.QuantityReserved -= h.quantity
    tt.QuantitySold += h.quantity
    tt.UpdatedAt = time.Now().UTC()
    h.state = model.ReservationCommitted
    return nil
}

func (s *MemoryStore) Release(_ context.Context, token string) (model.ReservationState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    h, ok := s.holds[token]
    if !ok {
        return "", model.ErrReservationNotFound
    }
    if h.state != model.ReservationHeld {
        // Duplicate release or release-after-commit: report the state
        // that got there first, mutate nothing.
        return h.state, nil
    }
    s.releaseLocked(h, model.ReservationReleased)
    return model.ReservationHeld, nil
}

func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) ([]string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    var tokens []string
    for _, h := range s.holds {
        if h.state == model.ReservationHeld && h.expiresAt.Before(now) {
            s.releaseLocked(h, model.ReservationExpired)
            tokens = append(tokens, h.token)
        }
    }
    return tokens, nil
}

// releaseLocked returns a held quantity to available. Caller holds mu
// and has verified the hold is still held.
func (s *MemoryStore) releaseLocked(h *gaHold, to model.ReservationState) {
    tt := s.types[h.ticketTypeID]
    tt.QuantityReserved -= h.quantity
    tt.UpdatedAt = time.Now().UTC()
    h.state = to
}
