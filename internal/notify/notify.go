// Package notify holds short-lived user-facing notifications.
package notify

import (
	"sync"
	"time"
)

// Lifetime is how long a notification stays visible after it is pushed.
const Lifetime = 3 * time.Second

type Kind int

const (
	Success Kind = iota
	Error
	Warning
	Info
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Notification struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Center is safe for concurrent use.
type Center struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  uint64
	entries []Notification
}

func NewCenter(now func() time.Time) *Center {
	if now == nil {
		now = time.Now
	}
	return &Center{now: now}
}

func (c *Center) Push(kind Kind, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	created := c.now()
	n := Notification{
		ID:        c.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: created,
		ExpiresAt: created.Add(Lifetime),
	}
	c.prune(created)
	c.entries = append(c.entries, n)
	return n
}

// Active returns the notifications still visible at now, oldest first.
func (c *Center) Active(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(now)
	out := make([]Notification, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Center) prune(now time.Time) {
	kept := c.entries[:0]
	for _, n := range c.entries {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	c.entries = kept
}
