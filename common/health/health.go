package health

import "sync"

type Status uint64

const (
	Initializing Status = iota
	Healthy
	Degraded
)

// Health is shared between the reactor, which moves it through its
// lifecycle, and the status listener, which reports it.
type Health struct {
	mu     sync.RWMutex
	health Status

	OnDegrade func()
}

func (h *Health) Health() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

func (h *Health) SetHealth(s Status) {
	h.mu.Lock()
	prev := h.health
	h.health = s
	onDegrade := h.OnDegrade
	h.mu.Unlock()

	if s == Degraded && prev != Degraded && onDegrade != nil {
		onDegrade()
	}
}

func (h *Health) String() string {
	return h.Health().String()
}

func (s Status) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Healthy:
		return "Healthy"
	case Degraded:
		return "Degraded"
	default:
		panic("health: unknown status")
	}
}
