package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeDetection is emitted when a detection run completes
	EventTypeDetection EventType = "detection"
	// EventTypeToggle is emitted when redaction state changes
	EventTypeToggle EventType = "toggle"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	SessionID string      `json:"session_id,omitempty"`
}

// DetectionEvent describes a completed detection run
type DetectionEvent struct {
	SessionID   string   `json:"session_id"`
	TextBytes   int      `json:"text_bytes"`
	EntityCount int      `json:"entity_count"`
	Labels      []string `json:"labels"`
	CacheHit    bool     `json:"cache_hit"`
	DurationMS  float64  `json:"duration_ms"`
}

// ToggleEvent describes a redaction state change
type ToggleEvent struct {
	SessionID string `json:"session_id"`
	EntityID  string `json:"entity_id,omitempty"`
	Label     string `json:"label,omitempty"`
	Redacted  int    `json:"redacted"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	ActiveSessions   int    `json:"active_sessions"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
	UserAgent    string
}
