package detect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/engine"
	"github.com/raaihank/redactview/internal/logger"
	"go.uber.org/zap"
)

func TestClientCheck(t *testing.T) {
	want := []engine.Entity{
		{ID: "Email_1", Label: "EMAIL", Start: 6, End: 15, Score: 0.97, OriginalText: "bob@x.com"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/check" {
			t.Errorf("Got %s %s, want POST /check", r.Method, r.URL.Path)
		}

		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if payload.Text != "Email bob@x.com now" {
			t.Errorf("Request text = %q", payload.Text)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	client := NewClient(config.RemoteConfig{URL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())

	entities, err := client.Check(context.Background(), "Email bob@x.com now")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(entities) != 1 || entities[0] != want[0] {
		t.Errorf("Got %+v, want %+v", entities, want)
	}
}

func TestClientCheckNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(config.RemoteConfig{URL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())

	_, err := client.Check(context.Background(), "some text")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Check error = %v, want *TransportError", err)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", transportErr.StatusCode)
	}
}

func TestClientCheckConnectionFailure(t *testing.T) {
	// Grab a port that nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(config.RemoteConfig{URL: url, Timeout: time.Second}, zap.NewNop())

	_, err := client.Check(context.Background(), "some text")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Check error = %v, want *TransportError", err)
	}
	if transportErr.Err == nil {
		t.Error("Connection failure must carry the underlying error")
	}
}

func TestServiceBuiltinMode(t *testing.T) {
	service, err := NewService(config.DetectorConfig{
		Mode:  "builtin",
		Rules: []string{"all"},
	}, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	result, err := service.Check(context.Background(), "mail a@b.com now")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].Label != "EMAIL" {
		t.Errorf("Got %+v, want one EMAIL entity", result.Entities)
	}
	if result.CacheHit {
		t.Error("Run without a cache reported a cache hit")
	}
}

func TestServiceUnknownMode(t *testing.T) {
	if _, err := NewService(config.DetectorConfig{Mode: "psychic"}, nil, logger.NewNop()); err == nil {
		t.Error("Unknown mode must fail")
	}
}
