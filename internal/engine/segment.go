package engine

// Segment converts a materialized display text and its spans into the
// ordered chunk sequence consumed by renderers. Concatenating the chunk
// texts in order reproduces the display text exactly; each entity chunk
// carries the stable id used for click-to-scroll navigation.
func Segment(display string, spans []Span) []Chunk {
	if len(spans) == 0 {
		if display == "" {
			return nil
		}
		return []Chunk{{Kind: ChunkPlain, Text: display}}
	}

	chunks := make([]Chunk, 0, len(spans))
	for _, sp := range spans {
		if sp.Start == sp.End {
			continue
		}
		text := display[sp.Start:sp.End]
		if sp.EntityID != "" {
			chunks = append(chunks, Chunk{Kind: ChunkEntity, Text: text, EntityID: sp.EntityID})
		} else {
			chunks = append(chunks, Chunk{Kind: ChunkPlain, Text: text})
		}
	}
	return chunks
}
