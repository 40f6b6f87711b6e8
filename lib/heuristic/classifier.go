// Package heuristic implements a rule-based spam scoring. Each rule adds a fixed weight to the
// score, the score is capped at 1.0 and compared with SpamThreshold to make a decision.
// Classifier holds no mutable state and is safe for concurrent use.
package heuristic

import (
	"math"

	"github.com/umputun/moderator/lib/spamcheck"
)

// SpamThreshold is a minimal score to consider a message spam.
const SpamThreshold = 0.6

// Classifier scores texts with an ordered list of rules.
type Classifier struct {
	rules []Rule
}

// NewClassifier makes a classifier evaluating rules in the given order.
// With no rules passed it uses DefaultRules.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

var defaultClassifier = NewClassifier()

// Classify scores text with the default rules.
func Classify(text string) spamcheck.Response {
	return defaultClassifier.Classify(text)
}

// Classify runs all rules against text and returns the score, decision and reasons of fired rules.
// Rules are independent, every rule is evaluated regardless of previous results.
func (c *Classifier) Classify(text string) spamcheck.Response {
	resp := spamcheck.Response{Reasons: []string{}}
	sum := 0.0
	for _, rule := range c.rules {
		res := rule(text)
		if !res.Fired {
			continue
		}
		sum += res.Weight
		resp.Reasons = append(resp.Reasons, res.Reason)
	}

	// weights are multiples of 0.05, rounding drops float accumulation noise like 0.7000000000000001
	resp.Score = math.Max(0, math.Min(1.0, math.Round(sum*100)/100))
	resp.IsSpam = resp.Score >= SpamThreshold
	return resp
}
