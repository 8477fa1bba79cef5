package engine

import "testing"

func TestStateToggle(t *testing.T) {
	state := NewState()

	if state.IsRedacted("<EMAIL>") {
		t.Error("Fresh state reports id as redacted")
	}

	state.Toggle("<EMAIL>")
	if !state.IsRedacted("<EMAIL>") {
		t.Error("Toggled id not redacted")
	}

	state.Toggle("<EMAIL>")
	if state.IsRedacted("<EMAIL>") {
		t.Error("Double toggle did not restore prior state")
	}
	if state.Count() != 0 {
		t.Errorf("State holds %d ids after double toggle, want 0", state.Count())
	}
}

func TestStateUnknownIDIsInert(t *testing.T) {
	state := NewState()

	// The state is id-agnostic: unknown ids become inert entries.
	state.Toggle("<NEVER_DETECTED>")
	if !state.IsRedacted("<NEVER_DETECTED>") {
		t.Error("Unknown id toggle not recorded")
	}
}

func TestStateReset(t *testing.T) {
	state := NewState()
	state.Toggle("<A>")
	state.Toggle("<B>")

	state.Reset()

	if state.Count() != 0 {
		t.Errorf("State holds %d ids after reset, want 0", state.Count())
	}
	if state.IsRedacted("<A>") || state.IsRedacted("<B>") {
		t.Error("Reset did not clear membership")
	}
}

func TestToggleLabelFlipsEach(t *testing.T) {
	original := "x@y.com 555-1234 a@b.com"
	catalog, err := NewCatalog(original, []Entity{
		{ID: "<E1>", Label: "EMAIL", Start: 0, End: 7, Score: 1, OriginalText: "x@y.com"},
		{ID: "<P1>", Label: "PHONE", Start: 8, End: 16, Score: 1, OriginalText: "555-1234"},
		{ID: "<E2>", Label: "EMAIL", Start: 17, End: 24, Score: 1, OriginalText: "a@b.com"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	t.Run("MixedGroupStaysMixed", func(t *testing.T) {
		state := NewState()
		state.Toggle("<E1>")

		state.ToggleLabel(catalog, "EMAIL")

		if state.IsRedacted("<E1>") {
			t.Error("<E1> should have flipped off")
		}
		if !state.IsRedacted("<E2>") {
			t.Error("<E2> should have flipped on")
		}
		if state.IsRedacted("<P1>") {
			t.Error("<P1> has a different label and must not flip")
		}
	})

	t.Run("Involution", func(t *testing.T) {
		state := NewState()
		state.Toggle("<E2>")
		state.Toggle("<P1>")

		state.ToggleLabel(catalog, "EMAIL")
		state.ToggleLabel(catalog, "EMAIL")

		if state.IsRedacted("<E1>") {
			t.Error("<E1> changed after double label flip")
		}
		if !state.IsRedacted("<E2>") {
			t.Error("<E2> changed after double label flip")
		}
		if !state.IsRedacted("<P1>") {
			t.Error("<P1> changed after double label flip")
		}
	})

	t.Run("UnknownLabelIsNoOp", func(t *testing.T) {
		state := NewState()
		state.Toggle("<E1>")

		state.ToggleLabel(catalog, "CREDIT_CARD")

		if !state.IsRedacted("<E1>") || state.Count() != 1 {
			t.Error("Unknown label flip mutated state")
		}
	})
}
