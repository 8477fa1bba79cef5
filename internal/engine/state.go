package engine

// State is the mutable set of currently-redacted entity ids. It is
// id-agnostic: toggling an id the catalog does not know is permitted and
// simply creates an inert entry.
type State struct {
	redacted map[string]struct{}
}

// NewState returns an empty redaction state.
func NewState() *State {
	return &State{redacted: make(map[string]struct{})}
}

// Toggle flips the redaction membership of id.
func (s *State) Toggle(id string) {
	if _, ok := s.redacted[id]; ok {
		delete(s.redacted, id)
	} else {
		s.redacted[id] = struct{}{}
	}
}

// IsRedacted reports whether id is currently redacted.
func (s *State) IsRedacted(id string) bool {
	_, ok := s.redacted[id]
	return ok
}

// Reset clears all membership. Called whenever the catalog is replaced.
func (s *State) Reset() {
	s.redacted = make(map[string]struct{})
}

// Count returns the number of currently-redacted ids.
func (s *State) Count() int {
	return len(s.redacted)
}

// ToggleLabel flips each catalog entity carrying the given label
// independently. A mixed group stays mixed with every bit inverted, and
// applying the same label twice restores the prior state exactly.
func (s *State) ToggleLabel(c *Catalog, label string) {
	for _, e := range c.entities {
		if e.Label == label {
			s.Toggle(e.ID)
		}
	}
}
