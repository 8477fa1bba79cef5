package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/engine"
	"go.uber.org/zap"
)

// TransportError reports a detection request that could not be sent or
// returned a non-success status. The caller must not mutate any session
// state when it sees one.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("detection request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("detection request to %s returned HTTP %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// checkRequest is the wire body of POST /check.
type checkRequest struct {
	Text string `json:"text"`
}

// Client calls a remote detection service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the remote detection service.
func NewClient(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Check posts the text to the remote /check endpoint and decodes the
// returned entity records.
func (c *Client) Check(ctx context.Context, text string) ([]engine.Entity, error) {
	url := c.baseURL + "/check"

	body, err := json.Marshal(checkRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	var entities []engine.Entity
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("Remote detection completed",
		zap.String("url", url),
		zap.Int("entities", len(entities)),
		zap.Duration("duration", time.Since(start)),
	)

	return entities, nil
}
