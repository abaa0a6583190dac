package attach

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Detacher removes the entities attached to a deleted record.
// *Attach and *Principal implement it.
type Detacher interface {
	Collection() string
	DetachFrom(ctx context.Context, id string) (int64, error)
}

// Registry maps a related collection to the services holding entities
// attached to it, for cascade cleanup when a related record is deleted.
type Registry struct {
	mu        sync.RWMutex
	detachers map[string][]Detacher
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		detachers: make(map[string][]Detacher),
		logger:    logger,
	}
}

// Register records that d holds entities attached to records of the
// related collection.
func (r *Registry) Register(related string, d Detacher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detachers[related] = append(r.detachers[related], d)
}

// DetachersOf returns the detachers registered for a related collection.
func (r *Registry) DetachersOf(related string) []Detacher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Detacher(nil), r.detachers[related]...)
}

// HasDetachers reports whether anything is attached to the collection.
func (r *Registry) HasDetachers(related string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.detachers[related]) > 0
}

// Collections returns the related collections with registrations, sorted.
func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.detachers))
	for name := range r.detachers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Detach removes everything attached to the record id of the related
// collection. It stops at the first failure and returns the count removed
// so far.
func (r *Registry) Detach(ctx context.Context, related, id string) (int64, error) {
	var total int64
	for _, d := range r.DetachersOf(related) {
		n, err := d.DetachFrom(ctx, id)
		total += n
		if err != nil {
			return total, fmt.Errorf("detach %s from %s/%s: %w", d.Collection(), related, id, err)
		}
		r.logger.Info("detached entities",
			"collection", d.Collection(),
			"related", related,
			"id", id,
			"count", n,
		)
	}
	return total, nil
}
