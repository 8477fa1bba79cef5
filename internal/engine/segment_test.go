package engine

import (
	"strings"
	"testing"
)

func TestSegmentEmailScenario(t *testing.T) {
	original := "Email bob@x.com now"
	catalog, err := NewCatalog(original, []Entity{
		{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	state := NewState()
	state.Toggle("<EMAIL>")

	display, spans := Materialize(catalog, state)
	if display != "Email <EMAIL> now" {
		t.Fatalf("Display text = %q, want %q", display, "Email <EMAIL> now")
	}

	chunks := Segment(display, spans)
	want := []Chunk{
		{Kind: ChunkPlain, Text: "Email "},
		{Kind: ChunkEntity, Text: "<EMAIL>", EntityID: "<EMAIL>"},
		{Kind: ChunkPlain, Text: " now"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("Got %d chunks, want %d: %v", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestSegmentConcatenationRoundTrip(t *testing.T) {
	original := "Call me at 555-1234 or 555-5678, or mail bob@x.com."
	catalog, err := NewCatalog(original, []Entity{
		{ID: "<PHONE1>", Label: "PHONE", Start: 11, End: 19, Score: 1, OriginalText: "555-1234"},
		{ID: "<PHONE2>", Label: "PHONE", Start: 23, End: 31, Score: 1, OriginalText: "555-5678"},
		{ID: "<EMAIL1>", Label: "EMAIL", Start: 41, End: 50, Score: 1, OriginalText: "bob@x.com"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	states := map[string][]string{
		"none":  nil,
		"one":   {"<PHONE2>"},
		"all":   {"<PHONE1>", "<PHONE2>", "<EMAIL1>"},
		"mixed": {"<PHONE1>", "<EMAIL1>"},
	}

	for name, ids := range states {
		t.Run(name, func(t *testing.T) {
			state := NewState()
			for _, id := range ids {
				state.Toggle(id)
			}

			display, spans := Materialize(catalog, state)
			chunks := Segment(display, spans)

			var b strings.Builder
			for _, c := range chunks {
				b.WriteString(c.Text)
			}
			if b.String() != display {
				t.Errorf("Chunk concatenation = %q, want %q", b.String(), display)
			}
		})
	}
}

func TestSegmentDuplicateSurfaceForms(t *testing.T) {
	// Two entities with identical surface text: offset-carrying spans must
	// tag each occurrence with its own id instead of matching the first
	// occurrence twice.
	original := "555-1234 then 555-1234"
	catalog, err := NewCatalog(original, []Entity{
		{ID: "<P1>", Label: "PHONE", Start: 0, End: 8, Score: 1, OriginalText: "555-1234"},
		{ID: "<P2>", Label: "PHONE", Start: 14, End: 22, Score: 1, OriginalText: "555-1234"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	state := NewState()
	state.Toggle("<P2>")

	display, spans := Materialize(catalog, state)
	if display != "555-1234 then <P2>" {
		t.Fatalf("Display text = %q, want %q", display, "555-1234 then <P2>")
	}

	chunks := Segment(display, spans)
	var entityIDs []string
	for _, c := range chunks {
		if c.Kind == ChunkEntity {
			entityIDs = append(entityIDs, c.EntityID)
		}
	}
	if len(entityIDs) != 2 || entityIDs[0] != "<P1>" || entityIDs[1] != "<P2>" {
		t.Errorf("Entity chunk ids = %v, want [<P1> <P2>]", entityIDs)
	}
}

func TestSegmentEmptyAndNoEntities(t *testing.T) {
	t.Run("EmptyText", func(t *testing.T) {
		if chunks := Segment("", nil); len(chunks) != 0 {
			t.Errorf("Empty text produced chunks: %v", chunks)
		}
	})

	t.Run("NoEntities", func(t *testing.T) {
		catalog, err := NewCatalog("just text", nil)
		if err != nil {
			t.Fatalf("NewCatalog failed: %v", err)
		}
		display, spans := Materialize(catalog, NewState())
		chunks := Segment(display, spans)
		if len(chunks) != 1 || chunks[0].Kind != ChunkPlain || chunks[0].Text != "just text" {
			t.Errorf("Got %v, want one plain chunk", chunks)
		}
	})
}
