package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/redactview/internal/detect"
	"github.com/raaihank/redactview/internal/engine"
	"github.com/raaihank/redactview/internal/store"
	"github.com/raaihank/redactview/internal/websocket"
	"go.uber.org/zap"
)

type textPayload struct {
	Text string `json:"text"`
}

type togglePayload struct {
	ID string `json:"id"`
}

type toggleLabelPayload struct {
	Label string `json:"label"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleCheck runs detection over the posted text and returns the entity
// records without touching any session.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var payload textPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.service.Check(r.Context(), payload.Text)
	if err != nil {
		s.writeDetectionError(w, r, err)
		return
	}

	s.setText(payload.Text)
	s.recordRun(r.Context(), payload.Text, result)
	s.broadcastDetection("", payload.Text, result)

	entities := result.Entities
	if entities == nil {
		entities = []engine.Entity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

// handleSetText stores the posted text for later retrieval.
func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	var payload textPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.setText(payload.Text)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Text stored"})
}

// handleGetText returns the most recently stored text.
func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	s.textMu.RLock()
	text := s.text
	s.textMu.RUnlock()

	writeJSON(w, http.StatusOK, textPayload{Text: text})
}

// handleCreateSession registers a new empty review session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, _ := s.sessions.Create()
	s.logger.Info("Session created", zap.String("session_id", id))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleDeleteSession drops a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.sessions.Get(id); !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyze runs detection over the posted text and applies the result
// to the session: text and catalog replaced atomically, redaction state
// reset. A failed detection leaves the session untouched.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	session, id, ok := s.session(w, r)
	if !ok {
		return
	}

	if !s.limiter.Allow(getClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var payload textPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Tag the run so a slow response cannot clobber a newer one.
	gen := session.NextGeneration()

	result, err := s.service.Check(r.Context(), payload.Text)
	if err != nil {
		s.writeDetectionError(w, r, err)
		return
	}

	if err := session.ApplyGeneration(gen, payload.Text, result.Entities); err != nil {
		switch {
		case errors.Is(err, engine.ErrStaleGeneration):
			writeError(w, http.StatusConflict, "superseded by a newer detection run")
		default:
			s.logger.Warn("Detection batch rejected",
				zap.String("session_id", id),
				zap.Error(err),
			)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	s.setText(payload.Text)
	s.recordRun(r.Context(), payload.Text, result)
	s.broadcastDetection(id, payload.Text, result)

	s.logger.WithRequestID(getRequestID(r.Context())).Info("Session analyzed",
		zap.String("session_id", id),
		zap.Int("entities", len(result.Entities)),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Duration("detection", result.Duration),
	)

	writeJSON(w, http.StatusOK, session.View())
}

// handleToggle flips the redaction state of one entity id.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	session, id, ok := s.session(w, r)
	if !ok {
		return
	}

	var payload togglePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.Toggle(payload.ID)
	view := session.View()
	s.broadcastToggle(id, payload.ID, "", view)

	s.logger.WithSessionID(id).Debug("Entity toggled",
		zap.String("entity_id", payload.ID),
		zap.Bool("redacted", session.IsRedacted(payload.ID)),
	)

	writeJSON(w, http.StatusOK, view)
}

// handleToggleLabel flips every entity carrying the posted label.
func (s *Server) handleToggleLabel(w http.ResponseWriter, r *http.Request) {
	session, id, ok := s.session(w, r)
	if !ok {
		return
	}

	var payload toggleLabelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Label == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.ToggleLabel(payload.Label)
	view := session.View()
	s.broadcastToggle(id, "", payload.Label, view)

	s.logger.WithSessionID(id).Debug("Label toggled", zap.String("label", payload.Label))

	writeJSON(w, http.StatusOK, view)
}

// handleView returns the session's current rendering snapshot.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	session, _, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

// handleRecentRuns returns the most recent audit rows, newest first.
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotFound, "audit store disabled")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.audit.RecentRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to query detection runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query detection runs")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}

	writeJSON(w, http.StatusOK, runs)
}

// handleClearCache drops all cached detection results.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}

	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear result cache", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared"})
}

// session resolves the {id} route variable, writing a 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*engine.Session, string, bool) {
	id := mux.Vars(r)["id"]
	session, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, id, false
	}
	return session, id, true
}

// writeDetectionError maps detection failures to responses. Transport
// failures surface as 502 so the caller sees them instead of a silently
// unchanged view.
func (s *Server) writeDetectionError(w http.ResponseWriter, r *http.Request, err error) {
	var transportErr *detect.TransportError
	if errors.As(err, &transportErr) {
		s.logger.Error("Detection request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "detection service unavailable")
		return
	}

	s.logger.Error("Detection failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "detection failed")
}

func (s *Server) setText(text string) {
	s.textMu.Lock()
	s.text = text
	s.textMu.Unlock()
}

// recordRun writes one audit row, best effort.
func (s *Server) recordRun(ctx context.Context, text string, result *detect.Result) {
	if s.audit == nil {
		return
	}

	labels := make(map[string]bool)
	var names []string
	for _, e := range result.Entities {
		if !labels[e.Label] {
			labels[e.Label] = true
			names = append(names, e.Label)
		}
	}

	sum := sha256.Sum256([]byte(text))
	run := &store.Run{
		TextHash:    hex.EncodeToString(sum[:]),
		TextBytes:   len(text),
		EntityCount: len(result.Entities),
		Labels:      strings.Join(names, ","),
		DurationMS:  float64(result.Duration.Nanoseconds()) / 1e6,
		CacheHit:    result.CacheHit,
	}

	if err := s.audit.RecordRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record detection run", zap.Error(err))
	}
}

func (s *Server) broadcastDetection(sessionID, text string, result *detect.Result) {
	labels := make(map[string]bool)
	var names []string
	for _, e := range result.Entities {
		if !labels[e.Label] {
			labels[e.Label] = true
			names = append(names, e.Label)
		}
	}

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeDetection,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: websocket.DetectionEvent{
			SessionID:   sessionID,
			TextBytes:   len(text),
			EntityCount: len(result.Entities),
			Labels:      names,
			CacheHit:    result.CacheHit,
			DurationMS:  float64(result.Duration.Nanoseconds()) / 1e6,
		},
	})
}

func (s *Server) broadcastToggle(sessionID, entityID, label string, view engine.View) {
	redacted := 0
	for _, e := range view.Entities {
		if e.Redacted {
			redacted++
		}
	}

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeToggle,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: websocket.ToggleEvent{
			SessionID: sessionID,
			EntityID:  entityID,
			Label:     label,
			Redacted:  redacted,
		},
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do.
		return
	}
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
