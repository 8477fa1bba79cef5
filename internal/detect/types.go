package detect

import "regexp"

// Rule is a single span-producing detection rule.
type Rule struct {
	// Name is the configuration identifier of the rule.
	Name string
	// Label is the entity category the rule reports.
	Label string
	// Pattern matches candidate occurrences.
	Pattern *regexp.Regexp
	// Group is the capture group holding the entity text. Group 0 is the
	// whole match; rules that need boundary context capture the entity in
	// group 1 instead, since RE2 has no lookaround.
	Group int
	// Score is the confidence assigned to the rule's matches.
	Score float64
	// Validate optionally rejects a textual match (e.g. Luhn checksum).
	Validate func(match string) bool
}

// span is a raw detected range before overlap merging and key assignment.
type span struct {
	start int
	end   int
	label string
	score float64
}
