package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/raaihank/redactview/internal/cache"
	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/engine"
	"github.com/raaihank/redactview/internal/logger"
	"go.uber.org/zap"
)

// Result is one detection run's outcome plus bookkeeping for callers that
// record or broadcast runs.
type Result struct {
	Entities []engine.Entity
	CacheHit bool
	Duration time.Duration
}

// Service runs detection through the configured backend, consulting the
// result cache when one is attached.
type Service struct {
	mode     string
	detector *Detector
	client   *Client
	cache    *cache.ResultCache
	logger   *logger.Logger
}

// NewService builds the detection facade for the configured mode. The
// cache may be nil, in which case every run detects from scratch.
func NewService(cfg config.DetectorConfig, resultCache *cache.ResultCache, log *logger.Logger) (*Service, error) {
	service := &Service{
		mode:   cfg.Mode,
		cache:  resultCache,
		logger: log,
	}

	switch cfg.Mode {
	case "builtin":
		detector, err := NewDetector(cfg, log.WithComponent("detector"))
		if err != nil {
			return nil, err
		}
		service.detector = detector
	case "remote":
		service.client = NewClient(cfg.Remote, log.WithComponent("detect_client").Logger)
	default:
		return nil, fmt.Errorf("unknown detector mode: %s", cfg.Mode)
	}

	return service, nil
}

// Check detects entities in the text, preferring a cached result.
func (s *Service) Check(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	if s.cache != nil {
		if entities, ok := s.cache.Get(ctx, text); ok {
			return &Result{Entities: entities, CacheHit: true, Duration: time.Since(start)}, nil
		}
	}

	var entities []engine.Entity
	switch s.mode {
	case "builtin":
		entities = s.detector.Detect(text)
	case "remote":
		var err error
		entities, err = s.client.Check(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, text, entities); err != nil {
			// A cold cache is not a detection failure.
			s.logger.Warn("Failed to cache detection result", zap.Error(err))
		}
	}

	return &Result{Entities: entities, Duration: time.Since(start)}, nil
}

// Mode returns the configured backend mode.
func (s *Service) Mode() string {
	return s.mode
}

// RuleNames returns the enabled rule names for the builtin backend, or nil
// when detection is remote.
func (s *Service) RuleNames() []string {
	if s.detector == nil {
		return nil
	}
	return s.detector.EnabledRules()
}
