package breakpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store owns the canonical breakpoint set. It is the single source of
// truth: consumers read copy-out snapshots and never hold a second copy
// beyond the current render frame.
type Store struct {
	mu sync.RWMutex

	// All breakpoints by ID
	breakpoints map[int]*Breakpoint

	// Breakpoints grouped by file path
	byPath map[string][]*Breakpoint

	// Data breakpoints (watchpoints)
	dataBreakpoints []*DataBreakpoint

	// Next breakpoint ID
	nextID int

	// Persistence file path
	persistPath string
}

// NewStore creates an empty breakpoint store.
func NewStore() *Store {
	return &Store{
		breakpoints: make(map[int]*Breakpoint),
		byPath:      make(map[string][]*Breakpoint),
		nextID:      1,
	}
}

// SetPersistPath sets the file path for breakpoint persistence.
func (s *Store) SetPersistPath(path string) {
	s.mu.Lock()
	s.persistPath = path
	s.mu.Unlock()
}

// allocateID allocates a new breakpoint ID.
func (s *Store) allocateID() int {
	id := s.nextID
	s.nextID++
	return id
}

// findLocked returns the record at the exact key. Callers hold the lock.
func (s *Store) findLocked(path string, line, column int) *Breakpoint {
	for _, bp := range s.byPath[path] {
		if bp.Line == line && bp.Column == column {
			return bp
		}
	}
	return nil
}

// removeLocked removes a record by ID from both indexes. Callers hold the
// lock.
func (s *Store) removeLocked(bp *Breakpoint) {
	delete(s.breakpoints, bp.ID)
	bps := s.byPath[bp.Path]
	for i, candidate := range bps {
		if candidate.ID == bp.ID {
			s.byPath[bp.Path] = append(bps[:i], bps[i+1:]...)
			break
		}
	}
	if len(s.byPath[bp.Path]) == 0 {
		delete(s.byPath, bp.Path)
	}
}

// Toggle adds a breakpoint at the exact (path, line, column) key if none
// exists, or removes the existing one. Column 0 toggles the line-level
// slot; an inline breakpoint on the same line is untouched.
// The returned bool is true when a breakpoint was added.
func (s *Store) Toggle(path string, line, column int) (Breakpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findLocked(path, line, column); existing != nil {
		s.removeLocked(existing)
		return *existing, false
	}

	bp := &Breakpoint{
		ID:      s.allocateID(),
		Path:    path,
		Line:    line,
		Column:  column,
		Enabled: true,
	}
	s.breakpoints[bp.ID] = bp
	s.byPath[path] = append(s.byPath[path], bp)
	return *bp, true
}

// Remove removes the breakpoint at the exact key.
func (s *Store) Remove(path string, line, column int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bp := s.findLocked(path, line, column)
	if bp == nil {
		return fmt.Errorf("no breakpoint at %s", Key{Path: path, Line: line, Column: column})
	}
	s.removeLocked(bp)
	return nil
}

// AddLogpoint creates a logpoint at the exact (path, line, column) key,
// or overwrites the message of the existing record. Column 0 addresses
// the line-level slot.
func (s *Store) AddLogpoint(path string, line, column int, message string) Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findLocked(path, line, column); existing != nil {
		existing.LogMessage = message
		return *existing
	}

	bp := &Breakpoint{
		ID:         s.allocateID(),
		Path:       path,
		Line:       line,
		Column:     column,
		LogMessage: message,
		Enabled:    true,
	}
	s.breakpoints[bp.ID] = bp
	s.byPath[path] = append(s.byPath[path], bp)
	return *bp
}

// ConvertToBreakpoint clears the log message of the record at the exact
// key, preserving the rest of the record and its identity.
func (s *Store) ConvertToBreakpoint(path string, line, column int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bp := s.findLocked(path, line, column)
	if bp == nil {
		return fmt.Errorf("no breakpoint at %s", Key{Path: path, Line: line, Column: column})
	}
	bp.LogMessage = ""
	return nil
}

// SetEnabled enables or disables the breakpoint at the exact key.
func (s *Store) SetEnabled(path string, line, column int, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bp := s.findLocked(path, line, column)
	if bp == nil {
		return fmt.Errorf("no breakpoint at %s", Key{Path: path, Line: line, Column: column})
	}
	bp.Enabled = enabled
	return nil
}

// SetCondition sets the condition expression for the breakpoint at the
// exact key. The expression is opaque; it is not validated locally.
func (s *Store) SetCondition(path string, line, column int, condition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bp := s.findLocked(path, line, column)
	if bp == nil {
		return fmt.Errorf("no breakpoint at %s", Key{Path: path, Line: line, Column: column})
	}
	bp.Condition = condition
	return nil
}

// SetHitCondition sets the canonical hit condition for the breakpoint at
// the exact key. An empty string clears it.
func (s *Store) SetHitCondition(path string, line, column int, hitCondition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bp := s.findLocked(path, line, column)
	if bp == nil {
		return fmt.Errorf("no breakpoint at %s", Key{Path: path, Line: line, Column: column})
	}
	bp.HitCondition = hitCondition
	return nil
}

// SetVerification records the adapter's verification result for a
// breakpoint by ID. Missing IDs are ignored; verification is best-effort.
func (s *Store) SetVerification(id int, verified bool, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bp, ok := s.breakpoints[id]; ok {
		bp.Verified = verified
		bp.Message = message
	}
}

// IncrementHitCount increments the hit count for a breakpoint by ID.
func (s *Store) IncrementHitCount(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bp, ok := s.breakpoints[id]; ok {
		bp.HitCount++
	}
}

// ForFile returns a snapshot of all breakpoints for a file, ordered by
// (line, column).
func (s *Store) ForFile(path string) []Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Breakpoint, 0, len(s.byPath[path]))
	for _, bp := range s.byPath[path] {
		result = append(result, *bp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Line != result[j].Line {
			return result[i].Line < result[j].Line
		}
		return result[i].Column < result[j].Column
	})
	return result
}

// FindAt returns the breakpoint at the exact key, if any.
func (s *Store) FindAt(path string, line, column int) (Breakpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if bp := s.findLocked(path, line, column); bp != nil {
		return *bp, true
	}
	return Breakpoint{}, false
}

// All returns a snapshot of every breakpoint.
func (s *Store) All() []Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Breakpoint, 0, len(s.breakpoints))
	for _, bp := range s.breakpoints {
		result = append(result, *bp)
	}
	return result
}

// Paths returns all file paths that have breakpoints.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.byPath))
	for path := range s.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ClearForPath removes all breakpoints for a file path.
func (s *Store) ClearForPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bp := range s.byPath[path] {
		delete(s.breakpoints, bp.ID)
	}
	delete(s.byPath, path)
}

// ClearAll removes all breakpoints, including data breakpoints.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.breakpoints = make(map[int]*Breakpoint)
	s.byPath = make(map[string][]*Breakpoint)
	s.dataBreakpoints = nil
}

// AddDataBreakpoint adds a watchpoint on a variable expression.
func (s *Store) AddDataBreakpoint(expression string, access AccessType, condition string) (DataBreakpoint, error) {
	if expression == "" {
		return DataBreakpoint{}, fmt.Errorf("data breakpoint expression is empty")
	}
	if !access.Valid() {
		return DataBreakpoint{}, fmt.Errorf("invalid access type %q", access)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dbp := &DataBreakpoint{
		ID:         s.allocateID(),
		Expression: expression,
		Access:     access,
		Condition:  condition,
		Enabled:    true,
	}
	s.dataBreakpoints = append(s.dataBreakpoints, dbp)
	return *dbp, nil
}

// RemoveDataBreakpoint removes a watchpoint by ID.
func (s *Store) RemoveDataBreakpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, dbp := range s.dataBreakpoints {
		if dbp.ID == id {
			s.dataBreakpoints = append(s.dataBreakpoints[:i], s.dataBreakpoints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("data breakpoint %d not found", id)
}

// DataBreakpoints returns a snapshot of all watchpoints.
func (s *Store) DataBreakpoints() []DataBreakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]DataBreakpoint, 0, len(s.dataBreakpoints))
	for _, dbp := range s.dataBreakpoints {
		result = append(result, *dbp)
	}
	return result
}

// persistedState is the on-disk format for persisted breakpoints.
type persistedState struct {
	Version         int               `json:"version"`
	Breakpoints     []*Breakpoint     `json:"breakpoints"`
	DataBreakpoints []*DataBreakpoint `json:"dataBreakpoints,omitempty"`
}

// Save persists breakpoints to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	path := s.persistPath
	bps := make([]*Breakpoint, 0, len(s.breakpoints))
	for _, bp := range s.breakpoints {
		clone := *bp
		bps = append(bps, &clone)
	}
	dbps := make([]*DataBreakpoint, 0, len(s.dataBreakpoints))
	for _, dbp := range s.dataBreakpoints {
		clone := *dbp
		dbps = append(dbps, &clone)
	}
	s.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("persist path not set")
	}

	sort.Slice(bps, func(i, j int) bool { return bps[i].ID < bps[j].ID })

	data := persistedState{
		Version:         1,
		Breakpoints:     bps,
		DataBreakpoints: dbps,
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal breakpoints: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Load loads persisted breakpoints from disk, replacing the current set.
// A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistPath == "" {
		return fmt.Errorf("persist path not set")
	}

	content, err := os.ReadFile(s.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read file: %w", err)
	}

	var data persistedState
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("unmarshal breakpoints: %w", err)
	}

	s.breakpoints = make(map[int]*Breakpoint)
	s.byPath = make(map[string][]*Breakpoint)
	s.dataBreakpoints = nil

	maxID := 0
	for _, bp := range data.Breakpoints {
		// Persisted verification is stale; the adapter re-verifies.
		bp.Verified = false
		s.breakpoints[bp.ID] = bp
		s.byPath[bp.Path] = append(s.byPath[bp.Path], bp)
		if bp.ID > maxID {
			maxID = bp.ID
		}
	}
	for _, dbp := range data.DataBreakpoints {
		dbp.Verified = false
		s.dataBreakpoints = append(s.dataBreakpoints, dbp)
		if dbp.ID > maxID {
			maxID = dbp.ID
		}
	}
	s.nextID = maxID + 1
	return nil
}
