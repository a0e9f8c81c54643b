package registry

import (
    "errors"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
)

// ErrNotFound is returned when no watch exists for a (user, instrument) pair.
var ErrNotFound = errors.New("watch not found")

// Status is the lifecycle of a single watch.
type Status int

const (
    // StatusPendingPrice: instrument chosen, threshold not yet supplied.
    StatusPendingPrice Status = iota
    // StatusActive: threshold set, awaiting evaluation.
    StatusActive
    // StatusFired: threshold crossed, notification claimed, eligible for removal.
    StatusFired
)

func (s Status) String() string {
    switch s {
    case StatusPendingPrice:
        return "pending_price"
    case StatusActive:
        return "active"
    case StatusFired:
        return "fired"
    default:
        return "unknown"
    }
}

// Watch is one user's tracked instrument plus optional trigger price.
type Watch struct {
    ID           uuid.UUID
    UserID       int64
    Instrument   string
    TriggerPrice decimal.Decimal
    Status       Status
    CreatedAt    time.Time
}

// Registry owns the mapping from user to their watches. All access goes
// through the mutex; callers get copies, never pointers into the map. The
// lock is only ever held around in-memory mutation.
type Registry struct {
    mu      sync.Mutex
    watches map[int64][]*Watch
}

func New() *Registry {
    return &Registry{watches: map[int64][]*Watch{}}
}

// find returns the index of the user's watch for instrument, or -1.
// Caller must hold r.mu. Instrument identity is case-insensitive.
func (r *Registry) find(userID int64, instrument string) int {
    for i, w := range r.watches[userID] {
        if strings.EqualFold(w.Instrument, instrument) {
            return i
        }
    }
    return -1
}

// Upsert adds a pending watch for (userID, instrument). When one already
// exists, in any status, it reports created=false and changes nothing.
func (r *Registry) Upsert(userID int64, instrument string) (Watch, bool) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if i := r.find(userID, instrument); i >= 0 {
        return *r.watches[userID][i], false
    }
    w := &Watch{
        ID:         uuid.New(),
        UserID:     userID,
        Instrument: instrument,
        Status:     StatusPendingPrice,
        CreatedAt:  time.Now(),
    }
    r.watches[userID] = append(r.watches[userID], w)
    return *w, true
}

// SetThreshold activates the user's watch for instrument at the given price.
// Price validation (finite, positive) happens at the conversation boundary;
// the registry only records it.
func (r *Registry) SetThreshold(userID int64, instrument string, price decimal.Decimal) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    i := r.find(userID, instrument)
    if i < 0 {
        return ErrNotFound
    }
    w := r.watches[userID][i]
    w.TriggerPrice = price
    w.Status = StatusActive
    return nil
}

// List returns copies of the user's watches in insertion order.
func (r *Registry) List(userID int64) []Watch {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]Watch, 0, len(r.watches[userID]))
    for _, w := range r.watches[userID] {
        out = append(out, *w)
    }
    return out
}

// Remove deletes the user's watch for instrument.
func (r *Registry) Remove(userID int64, instrument string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    i := r.find(userID, instrument)
    if i < 0 {
        return ErrNotFound
    }
    r.watches[userID] = append(r.watches[userID][:i], r.watches[userID][i+1:]...)
    if len(r.watches[userID]) == 0 {
        delete(r.watches, userID)
    }
    return nil
}

// RemoveByID deletes a watch by its ID. Removing a watch that is already
// gone is a silent no-op, so the evaluator and a user racing on the same
// watch resolve harmlessly.
func (r *Registry) RemoveByID(userID int64, id uuid.UUID) bool {
    r.mu.Lock()
    defer r.mu.Unlock()
    for i, w := range r.watches[userID] {
        if w.ID == id {
            r.watches[userID] = append(r.watches[userID][:i], r.watches[userID][i+1:]...)
            if len(r.watches[userID]) == 0 {
                delete(r.watches, userID)
            }
            return true
        }
    }
    return false
}

// MarkFired flips a watch from active to fired exactly once. The caller that
// gets true owns delivering the notification; later callers get false.
func (r *Registry) MarkFired(userID int64, id uuid.UUID) bool {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, w := range r.watches[userID] {
        if w.ID == id && w.Status == StatusActive {
            w.Status = StatusFired
            return true
        }
    }
    return false
}

// ActiveSnapshot returns copies of every active watch across all users. The
// evaluator iterates the snapshot freely; concurrent registry mutation can
// never invalidate it.
func (r *Registry) ActiveSnapshot() []Watch {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []Watch
    for _, ws := range r.watches {
        for _, w := range ws {
            if w.Status == StatusActive {
                out = append(out, *w)
            }
        }
    }
    return out
}
