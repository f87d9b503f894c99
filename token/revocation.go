package token

import (
	"errors"
	"sync"
	"time"
)

// Denylist holds the ids of signed out session tokens. An entry only has to outlive
// the token it blocks; after that the token fails its exp check on its own.
type Denylist interface {
	Deny(jti string, until time.Time) error
	IsRevoked(jti string) bool
	Prune() int
}

var _ Denylist = (*MemoryDenylist)(nil)

type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Deny blocks jti until the given time. Denying the same id twice keeps the later time.
func (d *MemoryDenylist) Deny(jti string, until time.Time) error {
	if jti == "" {
		return errors.New("[MemoryDenylist Deny] token has no id")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if current, ok := d.entries[jti]; !ok || until.After(current) {
		d.entries[jti] = until
	}
	return nil
}

func (d *MemoryDenylist) IsRevoked(jti string) bool {
	d.mu.RLock()
	until, ok := d.entries[jti]
	d.mu.RUnlock()
	return ok && d.now().Before(until)
}

// Prune drops lapsed entries and reports how many were removed
func (d *MemoryDenylist) Prune() int {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	pruned := 0
	for jti, until := range d.entries {
		if !now.Before(until) {
			delete(d.entries, jti)
			pruned++
		}
	}
	return pruned
}

func (d *MemoryDenylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
