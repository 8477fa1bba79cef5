package engine

import (
	"errors"
	"testing"
)

func TestNewCatalogValidation(t *testing.T) {
	original := "Email bob@x.com now"

	tests := []struct {
		name     string
		entities []Entity
		wantErr  error
	}{
		{
			name: "valid batch",
			entities: []Entity{
				{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
			},
		},
		{
			name: "empty id",
			entities: []Entity{
				{Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "empty label",
			entities: []Entity{
				{ID: "<EMAIL>", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "start at or past end",
			entities: []Entity{
				{ID: "<EMAIL>", Label: "EMAIL", Start: 15, End: 6, Score: 0.97, OriginalText: ""},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "end past text length",
			entities: []Entity{
				{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 99, Score: 0.97, OriginalText: "bob@x.com"},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "score outside unit interval",
			entities: []Entity{
				{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 1.5, OriginalText: "bob@x.com"},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "original text mismatch",
			entities: []Entity{
				{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "alice@x.com"},
			},
			wantErr: ErrMalformedEntity,
		},
		{
			name: "duplicate id",
			entities: []Entity{
				{ID: "<E>", Label: "EMAIL", Start: 0, End: 5, Score: 1, OriginalText: "Email"},
				{ID: "<E>", Label: "EMAIL", Start: 6, End: 15, Score: 1, OriginalText: "bob@x.com"},
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "overlapping spans",
			entities: []Entity{
				{ID: "<A>", Label: "EMAIL", Start: 6, End: 15, Score: 1, OriginalText: "bob@x.com"},
				{ID: "<B>", Label: "URL", Start: 10, End: 15, Score: 1, OriginalText: "x.com"},
			},
			wantErr: ErrSpanOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := NewCatalog(original, tt.entities)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewCatalog failed: %v", err)
				}
				if catalog.Len() != len(tt.entities) {
					t.Errorf("Catalog has %d entities, want %d", catalog.Len(), len(tt.entities))
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewCatalog error = %v, want %v", err, tt.wantErr)
			}
			if catalog != nil {
				t.Error("Rejected batch must not produce a catalog")
			}
		})
	}
}

func TestCatalogLookupAndOrder(t *testing.T) {
	original := "a 1 b 2"
	entities := []Entity{
		{ID: "<TWO>", Label: "NUM", Start: 6, End: 7, Score: 1, OriginalText: "2"},
		{ID: "<ONE>", Label: "NUM", Start: 2, End: 3, Score: 1, OriginalText: "1"},
	}

	catalog, err := NewCatalog(original, entities)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	t.Run("Get", func(t *testing.T) {
		e, ok := catalog.Get("<ONE>")
		if !ok {
			t.Fatal("Known id not found")
		}
		if e.Start != 2 || e.End != 3 {
			t.Errorf("Got range [%d,%d), want [2,3)", e.Start, e.End)
		}
		if _, ok := catalog.Get("<MISSING>"); ok {
			t.Error("Unknown id reported as found")
		}
	})

	t.Run("EntitiesAscending", func(t *testing.T) {
		got := catalog.Entities()
		if len(got) != 2 {
			t.Fatalf("Got %d entities, want 2", len(got))
		}
		if got[0].ID != "<ONE>" || got[1].ID != "<TWO>" {
			t.Errorf("Entities not in ascending start order: %v", got)
		}
	})
}

func TestCatalogLabels(t *testing.T) {
	original := "x@y.com 555-1234 a@b.com"
	entities := []Entity{
		{ID: "<E1>", Label: "EMAIL", Start: 0, End: 7, Score: 1, OriginalText: "x@y.com"},
		{ID: "<P1>", Label: "PHONE", Start: 8, End: 16, Score: 1, OriginalText: "555-1234"},
		{ID: "<E2>", Label: "EMAIL", Start: 17, End: 24, Score: 1, OriginalText: "a@b.com"},
	}

	catalog, err := NewCatalog(original, entities)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	labels := catalog.Labels()
	want := []string{"EMAIL", "PHONE"}
	if len(labels) != len(want) {
		t.Fatalf("Got labels %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}
