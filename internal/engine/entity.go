package engine

import "errors"

// Entity represents a single detected sensitive span in the original text.
// ID doubles as the literal token spliced into the display text when the
// entity is redacted, and as the render/navigation key.
type Entity struct {
	ID           string  `json:"key"`
	Label        string  `json:"label"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Score        float64 `json:"score"`
	OriginalText string  `json:"original"`
}

// Span is a contiguous range of the display text in display-text
// coordinates. EntityID is empty for plain runs.
type Span struct {
	Start    int
	End      int
	EntityID string
}

// ChunkKind distinguishes plain text runs from entity runs.
type ChunkKind string

const (
	// ChunkPlain is ordinary display text.
	ChunkPlain ChunkKind = "plain"
	// ChunkEntity is the surface form of one entity, clickable by its ID.
	ChunkEntity ChunkKind = "entity"
)

// Chunk is one renderable run of display text.
type Chunk struct {
	Kind     ChunkKind `json:"kind"`
	Text     string    `json:"text"`
	EntityID string    `json:"entity_id,omitempty"`
}

var (
	// ErrMalformedEntity indicates an entity record with missing fields or
	// offsets that do not fit the original text.
	ErrMalformedEntity = errors.New("malformed entity")

	// ErrDuplicateID indicates two entities in one batch share an id.
	ErrDuplicateID = errors.New("duplicate entity id")

	// ErrSpanOverlap indicates two entities in one batch have overlapping
	// character ranges. Detection backends are expected to merge overlaps
	// before emitting entities; a batch that still overlaps is rejected
	// whole rather than resolved by incidental ordering.
	ErrSpanOverlap = errors.New("overlapping entity spans")

	// ErrStaleGeneration indicates a detection result arrived for a run
	// that has been superseded by a newer one on the same session.
	ErrStaleGeneration = errors.New("stale detection generation")
)
