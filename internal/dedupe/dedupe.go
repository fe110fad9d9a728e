// Package dedupe implements the per-dataset "already succeeded" set used
// at bronze sub-stage B1 to skip reprocessing inbound candidates whose
// inbound_file_location already has a SUCCEEDED log_acquisition row.
package dedupe

import "sync"

// Set is a process-local dedupe set. The catalog-backed default
// implementation (catalog.Store.SucceededInboundLocations) seeds a Set
// once per dataset at the start of sub-stage B1; everything after that is
// an in-memory membership check so a single acquisition run never issues
// a query per candidate file.
type Set struct {
	mu      sync.RWMutex
	members map[string]bool
}

// New seeds a Set from an initial membership map (typically the catalog's
// SucceededInboundLocations result).
func New(initial map[string]bool) *Set {
	members := make(map[string]bool, len(initial))
	for k, v := range initial {
		if v {
			members[k] = true
		}
	}

	return &Set{members: members}
}

// Contains reports whether location has already succeeded.
func (s *Set) Contains(location string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.members[location]
}

// Add marks location as succeeded, used immediately after an extractor
// attempt logs SUCCEEDED so later candidates in the same pass see it.
func (s *Set) Add(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[location] = true
}

// Len reports the number of known-succeeded locations.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.members)
}
