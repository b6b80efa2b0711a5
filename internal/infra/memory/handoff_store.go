package memory

import (
	"context"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultHandoffTTL bounds how long an unread handoff is kept.
const DefaultHandoffTTL = time.Hour

type handoffSlot struct {
	email    string
	snapshot *domain.Snapshot
	expires  time.Time
}

// HandoffStore keeps handed-off snapshots and identity labels in process memory.
// Both live in one slot per session that expires after the TTL and is removed once
// the snapshot is taken.
type HandoffStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	slots map[string]*handoffSlot
}

func NewHandoffStore() *HandoffStore {
	return NewHandoffStoreWithTTL(DefaultHandoffTTL)
}

// NewHandoffStoreWithTTL creates a store whose slots expire after ttl. A ttl of zero
// keeps slots until their snapshot is taken.
func NewHandoffStoreWithTTL(ttl time.Duration) *HandoffStore {
	return &HandoffStore{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]*handoffSlot),
	}
}

func (h *HandoffStore) PutIdentity(_ context.Context, sessionID, email string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sweepLocked()
	h.slotLocked(sessionID).email = email
	return nil
}

func (h *HandoffStore) Identity(_ context.Context, sessionID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, ok := h.liveLocked(sessionID)
	if !ok {
		return "", nil
	}
	return slot.email, nil
}

func (h *HandoffStore) PutSnapshot(_ context.Context, sessionID string, snapshot domain.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sweepLocked()
	snap := snapshot.Clone()
	h.slotLocked(sessionID).snapshot = &snap
	return nil
}

// TakeSnapshot returns the stored snapshot and removes the session's slot, identity included.
func (h *HandoffStore) TakeSnapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, ok := h.liveLocked(sessionID)
	if !ok || slot.snapshot == nil {
		return domain.Snapshot{}, domain.ErrMissingSnapshot
	}
	delete(h.slots, sessionID)
	return *slot.snapshot, nil
}

// Len reports how many session slots are held, expired ones included until the next sweep.
func (h *HandoffStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots)
}

// slotLocked returns the slot for sessionID, creating it if needed, and refreshes its expiry.
func (h *HandoffStore) slotLocked(sessionID string) *handoffSlot {
	slot, ok := h.slots[sessionID]
	if !ok {
		slot = &handoffSlot{}
		h.slots[sessionID] = slot
	}
	if h.ttl > 0 {
		slot.expires = h.now().Add(h.ttl)
	}
	return slot
}

func (h *HandoffStore) liveLocked(sessionID string) (*handoffSlot, bool) {
	slot, ok := h.slots[sessionID]
	if !ok {
		return nil, false
	}
	if h.expiredLocked(slot) {
		delete(h.slots, sessionID)
		return nil, false
	}
	return slot, true
}

func (h *HandoffStore) sweepLocked() {
	for id, slot := range h.slots {
		if h.expiredLocked(slot) {
			delete(h.slots, id)
		}
	}
}

func (h *HandoffStore) expiredLocked(slot *handoffSlot) bool {
	return !slot.expires.IsZero() && !h.now().Before(slot.expires)
}
