package heuristic

import (
	"strings"
)

// Rule represents a single heuristic. It takes the raw message text and reports whether
// the rule fired and what it contributes to the score.
type Rule func(text string) RuleResult

// RuleResult is a result of a single rule evaluation.
type RuleResult struct {
	Name   string  // name of the rule
	Fired  bool    // true if the rule matched the text
	Weight float64 // score contribution, counted only if fired
	Reason string  // human-readable label added to the response if fired
}

// reason labels, part of the public response
const (
	ReasonSpamMarker  = "contains spam marker"
	ReasonTooLong     = "too long"
	ReasonExclamation = "too many exclamation marks"
	ReasonTooShort    = "very short message"
)

// DefaultMarkers returns a list of substrings usually found in promotional messages.
// Each call returns a new slice.
func DefaultMarkers() []string {
	return []string{"http://", "https://", "t.me/", "discord.gg", "casino", "crypto"}
}

// MarkersRule is a function that returns a Rule checking if the lowercased text contains
// any of the given markers. Markers are matched as plain substrings, not words,
// so "cryptography" matches "crypto". Markers are expected to be lowercase.
// The rule keeps its own copy of markers, later changes of the passed slice don't affect it.
func MarkersRule(weight float64, markers ...string) Rule {
	markers = append([]string(nil), markers...)
	return func(text string) RuleResult {
		lower := strings.ToLower(text)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return RuleResult{Name: "markers", Fired: true, Weight: weight, Reason: ReasonSpamMarker}
			}
		}
		return RuleResult{Name: "markers", Weight: weight, Reason: ReasonSpamMarker}
	}
}

// LengthRule is a function that returns a Rule checking if the text is longer than limit bytes.
func LengthRule(weight float64, limit int) Rule {
	return func(text string) RuleResult {
		return RuleResult{Name: "length", Fired: len(text) > limit, Weight: weight, Reason: ReasonTooLong}
	}
}

// ExclamationRule is a function that returns a Rule checking if the text has at least minCount exclamation marks.
func ExclamationRule(weight float64, minCount int) Rule {
	return func(text string) RuleResult {
		count := strings.Count(text, "!")
		return RuleResult{Name: "exclamation", Fired: count >= minCount, Weight: weight, Reason: ReasonExclamation}
	}
}

// BrevityRule is a function that returns a Rule checking if the text has maxTokens
// whitespace-separated words or fewer. Empty text has zero words and fires the rule.
func BrevityRule(weight float64, maxTokens int) Rule {
	return func(text string) RuleResult {
		tokens := len(strings.Fields(text))
		return RuleResult{Name: "brevity", Fired: tokens <= maxTokens, Weight: weight, Reason: ReasonTooShort}
	}
}

// DefaultRules returns the standard rule set in evaluation order: markers, length, exclamation, brevity.
func DefaultRules() []Rule {
	return []Rule{
		MarkersRule(0.55, DefaultMarkers()...),
		LengthRule(0.2, 320),
		ExclamationRule(0.15, 5),
		BrevityRule(0.1, 2),
	}
}
