package engine

import (
	"fmt"
	"sort"
)

// Catalog holds the entity spans detected in one original text. It is
// immutable after construction; a new detection run produces a new Catalog.
type Catalog struct {
	original string
	entities []Entity // ascending by Start, validated disjoint
	byID     map[string]Entity
	labels   []string // distinct, order of first appearance in the input
}

// NewCatalog validates and ingests a batch of entity records against the
// original text. Validation is all-or-nothing: any malformed record,
// duplicate id, or overlapping span rejects the whole batch.
func NewCatalog(original string, entities []Entity) (*Catalog, error) {
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	byID := make(map[string]Entity, len(sorted))
	prevEnd := 0
	for _, e := range sorted {
		if err := validateEntity(original, e); err != nil {
			return nil, err
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
		}
		if e.Start < prevEnd {
			return nil, fmt.Errorf("%w: %q starts at %d before previous span ends at %d",
				ErrSpanOverlap, e.ID, e.Start, prevEnd)
		}
		byID[e.ID] = e
		prevEnd = e.End
	}

	// Label order follows first appearance in the caller's sequence, not
	// the position-sorted one, so the filter control mirrors the detection
	// result ordering.
	seen := make(map[string]bool)
	var labels []string
	for _, e := range entities {
		if !seen[e.Label] {
			seen[e.Label] = true
			labels = append(labels, e.Label)
		}
	}

	return &Catalog{
		original: original,
		entities: sorted,
		byID:     byID,
		labels:   labels,
	}, nil
}

func validateEntity(original string, e Entity) error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedEntity)
	}
	if e.Label == "" {
		return fmt.Errorf("%w: %q has empty label", ErrMalformedEntity, e.ID)
	}
	if e.Start < 0 || e.End > len(original) || e.Start >= e.End {
		return fmt.Errorf("%w: %q has invalid range [%d,%d) for text of length %d",
			ErrMalformedEntity, e.ID, e.Start, e.End, len(original))
	}
	if e.Score < 0 || e.Score > 1 {
		return fmt.Errorf("%w: %q has score %v outside [0,1]", ErrMalformedEntity, e.ID, e.Score)
	}
	if e.OriginalText != original[e.Start:e.End] {
		return fmt.Errorf("%w: %q original text %q does not match source range %q",
			ErrMalformedEntity, e.ID, e.OriginalText, original[e.Start:e.End])
	}
	return nil
}

// Original returns the unmodified source text the catalog was built against.
func (c *Catalog) Original() string {
	return c.original
}

// Get looks up an entity by id.
func (c *Catalog) Get(id string) (Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Entities returns the catalog's entities in ascending start order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Len returns the number of entities in the catalog.
func (c *Catalog) Len() int {
	return len(c.entities)
}

// Labels returns the distinct label set in order of first appearance,
// used to populate the filter control.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}
