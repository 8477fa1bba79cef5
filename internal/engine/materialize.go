package engine

import "strings"

// Materialize derives the current display text from the catalog and
// redaction state: every redacted entity's span is replaced by its id
// token, every other span is left as the original substring. The original
// text is never mutated.
//
// Alongside the text it returns the ordered spans it produced, in
// display-text coordinates, so segmentation works from explicit offsets
// instead of re-searching surface forms (which is ambiguous once a token
// duplicates a substring elsewhere in the text). Catalog spans are
// validated disjoint, so a single left-to-right pass cannot drift no
// matter how replacement lengths differ from the spans they cover.
func Materialize(c *Catalog, s *State) (string, []Span) {
	var b strings.Builder
	b.Grow(len(c.original))

	spans := make([]Span, 0, 2*len(c.entities)+1)
	cursor := 0
	for _, e := range c.entities {
		if e.Start > cursor {
			start := b.Len()
			b.WriteString(c.original[cursor:e.Start])
			spans = append(spans, Span{Start: start, End: b.Len()})
		}
		surface := e.OriginalText
		if s.IsRedacted(e.ID) {
			surface = e.ID
		}
		start := b.Len()
		b.WriteString(surface)
		spans = append(spans, Span{Start: start, End: b.Len(), EntityID: e.ID})
		cursor = e.End
	}
	if cursor < len(c.original) {
		start := b.Len()
		b.WriteString(c.original[cursor:])
		spans = append(spans, Span{Start: start, End: b.Len()})
	}

	return b.String(), spans
}
