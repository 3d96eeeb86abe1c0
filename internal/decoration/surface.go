package decoration

import (
	"sync"

	"github.com/google/uuid"
)

// MemorySurface is an in-memory Surface. It backs tests and headless use,
// and models the editor contract exactly: uuid handles, wholesale delta
// replacement, and a recorded reveal line.
type MemorySurface struct {
	mu          sync.Mutex
	decorations map[string]Descriptor
	revealed    []int
}

// NewMemorySurface creates an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{decorations: make(map[string]Descriptor)}
}

// ApplyDeltas removes the decorations identified by old and registers the
// given descriptors, returning one fresh handle per descriptor in order.
// Unknown old handles are ignored; the apply is best-effort.
func (s *MemorySurface) ApplyDeltas(old []string, next []Descriptor) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range old {
		delete(s.decorations, id)
	}

	ids := make([]string, len(next))
	for i, d := range next {
		id := uuid.NewString()
		s.decorations[id] = d
		ids[i] = id
	}
	return ids, nil
}

// Reveal records a scroll-to-line request.
func (s *MemorySurface) Reveal(line int) {
	s.mu.Lock()
	s.revealed = append(s.revealed, line)
	s.mu.Unlock()
}

// Decorations returns the currently registered descriptors keyed by handle.
func (s *MemorySurface) Decorations() map[string]Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]Descriptor, len(s.decorations))
	for id, d := range s.decorations {
		result[id] = d
	}
	return result
}

// Revealed returns the recorded reveal requests in order.
func (s *MemorySurface) Revealed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]int, len(s.revealed))
	copy(result, s.revealed)
	return result
}
