package engine

import (
	"fmt"
	"sync"
)

// EntityView is the per-entity listing row exposed at the rendering
// boundary: the entity metadata plus its current redaction flag.
type EntityView struct {
	Entity
	Redacted bool `json:"redacted"`
}

// View is a snapshot of everything a renderer needs: the current display
// text, its chunk segmentation, the distinct label set for filtering, and
// the per-entity listing rows.
type View struct {
	Text     string       `json:"text"`
	Chunks   []Chunk      `json:"chunks"`
	Labels   []string     `json:"labels"`
	Entities []EntityView `json:"entities"`
}

// Session owns one document's redaction state: the original text, the
// entity catalog, and the redacted-id set. All mutation goes through its
// methods; catalog and original text are only ever replaced together, and
// replacement resets the redaction state.
type Session struct {
	mu         sync.RWMutex
	catalog    *Catalog
	state      *State
	generation uint64
}

// NewSession returns a session holding an empty text and catalog.
func NewSession() *Session {
	catalog, _ := NewCatalog("", nil)
	return &Session{
		catalog: catalog,
		state:   NewState(),
	}
}

// NextGeneration marks the start of a detection run and returns its
// generation token. A later run started on the same session invalidates
// all earlier tokens, so a slow response from a superseded run cannot
// clobber a newer result.
func (s *Session) NextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// ApplyGeneration atomically replaces the original text and catalog and
// resets the redaction state, but only if gen is still the session's
// latest detection generation. Stale completions return
// ErrStaleGeneration; the batch is validated before anything mutates, so
// a rejected batch leaves the session untouched.
func (s *Session) ApplyGeneration(gen uint64, original string, entities []Entity) error {
	catalog, err := NewCatalog(original, entities)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return fmt.Errorf("%w: got %d, current %d", ErrStaleGeneration, gen, s.generation)
	}
	s.catalog = catalog
	s.state.Reset()
	return nil
}

// Apply replaces the text and catalog unconditionally, starting and
// completing a detection generation in one step.
func (s *Session) Apply(original string, entities []Entity) error {
	return s.ApplyGeneration(s.NextGeneration(), original, entities)
}

// Toggle flips the redaction state of a single entity id.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Toggle(id)
}

// ToggleLabel flips every catalog entity carrying the given label.
func (s *Session) ToggleLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ToggleLabel(s.catalog, label)
}

// Reset clears the redaction state without touching text or catalog.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
}

// IsRedacted reports the current redaction flag of an entity id.
func (s *Session) IsRedacted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsRedacted(id)
}

// Original returns the session's unmodified source text.
func (s *Session) Original() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Original()
}

// View materializes the current display text and segmentation.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	display, spans := Materialize(s.catalog, s.state)

	entities := s.catalog.Entities()
	views := make([]EntityView, len(entities))
	for i, e := range entities {
		views[i] = EntityView{Entity: e, Redacted: s.state.IsRedacted(e.ID)}
	}

	return View{
		Text:     display,
		Chunks:   Segment(display, spans),
		Labels:   s.catalog.Labels(),
		Entities: views,
	}
}
