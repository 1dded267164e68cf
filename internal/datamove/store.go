package datamove

import (
	"context"
	"log/slog"
	"sync"

	"github.com/me/taskdag/internal/alias"
	"github.com/me/taskdag/internal/topology"
)

// Store is a concrete contracts.Mover: an in-process, per-space map of
// value identity to its last-known contents, standing in for a real
// transfer primitive between worker memories.
type Store struct {
	logger *slog.Logger

	mu     sync.Mutex
	spaces map[topology.SpaceID]map[uintptr]any
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger: logger.With("component", "datamove"),
		spaces: make(map[topology.SpaceID]map[uintptr]any),
	}
}

func (s *Store) slotLocked(space topology.SpaceID) map[uintptr]any {
	m, ok := s.spaces[space]
	if !ok {
		m = make(map[uintptr]any)
		s.spaces[space] = m
	}
	return m
}

// Move synchronously allocates a slot for value in to's space. If the slot
// doesn't already hold data, it's seeded with value so a later CopyTo has
// somewhere to land; this models slot allocation (spec §4.4(d)) without
// pretending to move bytes that a subsequent copy task will move anyway.
func (s *Store) Move(ctx context.Context, from, to topology.Processor, value any) (any, error) {
	id := alias.IdentityOf(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	dst := s.slotLocked(to.Space)
	if _, exists := dst[id]; !exists {
		dst[id] = value
	}
	s.logger.Debug("slot allocated", "from", from.Space, "to", to.Space)
	return value, nil
}

// CopyTo copies the current contents of value in srcSpace into dstSpace.
// If srcSpace has no record of value yet, value itself is used as the
// source of truth (the common case for a value's very first placement).
func (s *Store) CopyTo(ctx context.Context, dstSpace, srcSpace topology.SpaceID, value any) error {
	id := alias.IdentityOf(value)
	s.mu.Lock()
	defer s.mu.Unlock()

	data := value
	if src, ok := s.spaces[srcSpace]; ok {
		if v, ok := src[id]; ok {
			data = v
		}
	}
	dst := s.slotLocked(dstSpace)
	dst[id] = data
	s.logger.Debug("copied", "src", srcSpace, "dst", dstSpace)
	return nil
}
