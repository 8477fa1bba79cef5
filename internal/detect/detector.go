package detect

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/engine"
	"github.com/raaihank/redactview/internal/logger"
	"go.uber.org/zap"
)

// Detector is the built-in regex detection backend.
type Detector struct {
	rules   []Rule
	enabled map[string]bool
	logger  *logger.Logger
}

// NewDetector creates a built-in detector with the given rules enabled.
func NewDetector(cfg config.DetectorConfig, log *logger.Logger) (*Detector, error) {
	detector := &Detector{
		rules:   DefaultRules(),
		enabled: make(map[string]bool),
		logger:  log,
	}

	if err := detector.configureRules(cfg.Rules); err != nil {
		return nil, fmt.Errorf("failed to configure detection rules: %w", err)
	}

	log.Info("Built-in detector initialized",
		zap.Int("total_rules", len(detector.rules)),
		zap.Int("enabled_rules", len(detector.EnabledRules())),
	)

	return detector, nil
}

// configureRules enables/disables rules based on configuration
func (d *Detector) configureRules(names []string) error {
	// Disable all rules by default
	for _, rule := range d.rules {
		d.enabled[rule.Name] = false
	}

	for _, name := range names {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Name] = true
			}
			continue
		}

		found := false
		for _, rule := range d.rules {
			if rule.Name == name {
				d.enabled[rule.Name] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown rule: %s", name)
		}
	}

	return nil
}

// Detect runs all enabled rules over the text and returns the validated
// entity batch: overlaps merged, ids assigned, offsets into text.
func (d *Detector) Detect(text string) []engine.Entity {
	spans := mergeSpans(d.scan(text))
	entities := assignKeys(text, spans)

	if len(entities) > 0 {
		d.logger.Debug("Detection completed",
			zap.Int("entities", len(entities)),
			zap.Int("text_bytes", len(text)),
		)
	}

	return entities
}

// scan collects raw spans from every enabled rule. Matching resumes from
// the end of the captured group rather than the full match: rules that
// consume a boundary character as trailing context would otherwise swallow
// the delimiter the next occurrence needs as leading context, and the
// second of two numbers separated by a single non-digit would be missed.
func (d *Detector) scan(text string) []span {
	var spans []span
	for _, rule := range d.rules {
		if !d.enabled[rule.Name] {
			continue
		}

		for offset := 0; offset < len(text); {
			m := rule.Pattern.FindStringSubmatchIndex(text[offset:])
			if m == nil {
				break
			}

			start, end := m[2*rule.Group], m[2*rule.Group+1]
			if start < 0 || start == end {
				if m[1] <= 0 {
					offset++
				} else {
					offset += m[1]
				}
				continue
			}

			if rule.Validate == nil || rule.Validate(text[offset+start:offset+end]) {
				spans = append(spans, span{
					start: offset + start,
					end:   offset + end,
					label: rule.Label,
					score: rule.Score,
				})
			}
			offset += end
		}
	}
	return spans
}

// mergeSpans resolves overlapping or contained spans deterministically:
// spans are ordered by (start, -end), and an overlapping span replaces the
// previously kept one iff it is longer or scores higher. The result is
// disjoint, which catalog ingestion requires.
func mergeSpans(spans []span) []span {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})

	var out []span
	for _, s := range sorted {
		if len(out) > 0 && s.start < out[len(out)-1].end {
			last := out[len(out)-1]
			if s.end-s.start > last.end-last.start || s.score > last.score {
				out[len(out)-1] = s
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// assignKeys turns disjoint spans into entity records. Keys are built from
// a per-label counter numbered left to right, e.g. Email_1, Phone_2.
func assignKeys(text string, spans []span) []engine.Entity {
	counters := make(map[string]int)
	entities := make([]engine.Entity, 0, len(spans))
	for _, s := range spans {
		counters[s.label]++
		entities = append(entities, engine.Entity{
			ID:           fmt.Sprintf("%s_%d", capitalize(s.label), counters[s.label]),
			Label:        strings.ToUpper(s.label),
			Start:        s.start,
			End:          s.end,
			Score:        math.Round(s.score*10000) / 10000,
			OriginalText: text[s.start:s.end],
		})
	}
	return entities
}

// capitalize upper-cases the first byte and lower-cases the rest, so
// CREDIT_CARD becomes Credit_card.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// EnabledRules returns the names of all enabled rules.
func (d *Detector) EnabledRules() []string {
	var enabled []string
	for _, rule := range d.rules {
		if d.enabled[rule.Name] {
			enabled = append(enabled, rule.Name)
		}
	}
	return enabled
}

// EnableRule enables a specific detection rule.
func (d *Detector) EnableRule(name string) error {
	for _, rule := range d.rules {
		if rule.Name == name {
			d.enabled[name] = true
			d.logger.Info("Detection rule enabled", zap.String("rule", name))
			return nil
		}
	}
	return fmt.Errorf("unknown rule: %s", name)
}

// DisableRule disables a specific detection rule.
func (d *Detector) DisableRule(name string) error {
	if _, exists := d.enabled[name]; !exists {
		return fmt.Errorf("unknown rule: %s", name)
	}

	d.enabled[name] = false
	d.logger.Info("Detection rule disabled", zap.String("rule", name))
	return nil
}
