package engine

import (
	"errors"
	"testing"
)

func applyEmailText(t *testing.T, s *Session) {
	t.Helper()
	err := s.Apply("Email bob@x.com now", []Entity{
		{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func TestSessionToggleAndView(t *testing.T) {
	session := NewSession()
	applyEmailText(t, session)

	view := session.View()
	if view.Text != "Email bob@x.com now" {
		t.Errorf("Initial view text = %q, want original", view.Text)
	}
	if len(view.Entities) != 1 || view.Entities[0].Redacted {
		t.Errorf("Initial entity listing = %+v, want one unredacted entity", view.Entities)
	}

	session.Toggle("<EMAIL>")
	view = session.View()
	if view.Text != "Email <EMAIL> now" {
		t.Errorf("View text after toggle = %q, want %q", view.Text, "Email <EMAIL> now")
	}
	if !view.Entities[0].Redacted {
		t.Error("Entity listing does not reflect redaction flag")
	}
	if len(view.Labels) != 1 || view.Labels[0] != "EMAIL" {
		t.Errorf("Labels = %v, want [EMAIL]", view.Labels)
	}
}

func TestSessionApplyResetsState(t *testing.T) {
	session := NewSession()
	applyEmailText(t, session)
	session.Toggle("<EMAIL>")

	// New detection result replaces text and catalog atomically and drops
	// all redaction state, even for ids that reappear.
	err := session.Apply("mail: bob@x.com", []Entity{
		{ID: "<EMAIL>", Label: "EMAIL", Start: 6, End: 15, Score: 0.9, OriginalText: "bob@x.com"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if session.IsRedacted("<EMAIL>") {
		t.Error("Redaction state survived catalog replacement")
	}
	if got := session.View().Text; got != "mail: bob@x.com" {
		t.Errorf("View text = %q, want new original", got)
	}
}

func TestSessionRejectedBatchLeavesStateUntouched(t *testing.T) {
	session := NewSession()
	applyEmailText(t, session)
	session.Toggle("<EMAIL>")

	err := session.Apply("short", []Entity{
		{ID: "<X>", Label: "EMAIL", Start: 0, End: 99, Score: 1, OriginalText: "short"},
	})
	if !errors.Is(err, ErrMalformedEntity) {
		t.Fatalf("Apply error = %v, want ErrMalformedEntity", err)
	}

	view := session.View()
	if view.Text != "Email <EMAIL> now" {
		t.Errorf("View text = %q; rejected batch must not mutate the session", view.Text)
	}
}

func TestSessionStaleGeneration(t *testing.T) {
	session := NewSession()

	first := session.NextGeneration()
	second := session.NextGeneration()

	// The slower, older run completes after a newer one started: it must
	// be rejected instead of clobbering the newer run's result.
	err := session.ApplyGeneration(first, "old text", nil)
	if !errors.Is(err, ErrStaleGeneration) {
		t.Fatalf("ApplyGeneration(stale) error = %v, want ErrStaleGeneration", err)
	}

	if err := session.ApplyGeneration(second, "new text", nil); err != nil {
		t.Fatalf("ApplyGeneration(current) failed: %v", err)
	}
	if got := session.View().Text; got != "new text" {
		t.Errorf("View text = %q, want %q", got, "new text")
	}
}

func TestSessionToggleLabel(t *testing.T) {
	session := NewSession()
	err := session.Apply("x@y.com and a@b.com", []Entity{
		{ID: "<E1>", Label: "EMAIL", Start: 0, End: 7, Score: 1, OriginalText: "x@y.com"},
		{ID: "<E2>", Label: "EMAIL", Start: 12, End: 19, Score: 1, OriginalText: "a@b.com"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	session.ToggleLabel("EMAIL")
	if got := session.View().Text; got != "<E1> and <E2>" {
		t.Errorf("View text = %q, want %q", got, "<E1> and <E2>")
	}

	session.ToggleLabel("EMAIL")
	if got := session.View().Text; got != "x@y.com and a@b.com" {
		t.Errorf("Double label flip produced %q, want original", got)
	}
}

func TestManager(t *testing.T) {
	manager := NewManager()

	id, session := manager.Create()
	if id == "" || session == nil {
		t.Fatal("Create returned empty session")
	}

	got, ok := manager.Get(id)
	if !ok || got != session {
		t.Error("Get did not return the created session")
	}

	if _, ok := manager.Get("no-such-id"); ok {
		t.Error("Unknown id reported as found")
	}

	manager.Delete(id)
	if _, ok := manager.Get(id); ok {
		t.Error("Deleted session still found")
	}
	if manager.Count() != 0 {
		t.Errorf("Manager holds %d sessions after delete, want 0", manager.Count())
	}
}
