package heuristic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkersRule(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "no markers", text: "This is a regular message.", expected: false},
		{name: "http link", text: "see http://example.com", expected: true},
		{name: "https link", text: "see https://example.com", expected: true},
		{name: "telegram link", text: "join t.me/somechannel", expected: true},
		{name: "discord invite", text: "join discord.gg/abc", expected: true},
		{name: "casino", text: "best casino in town", expected: true},
		{name: "upper case", text: "BEST CASINO IN TOWN", expected: true},
		{name: "mixed case link", text: "HtTpS://Example.com", expected: true},
		{name: "substring, not a word", text: "I study cryptography", expected: true},
		{name: "domain without scheme", text: "example.com is fine", expected: false},
		{name: "empty", text: "", expected: false},
	}

	rule := MarkersRule(0.55, DefaultMarkers()...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule(tt.text)
			assert.Equal(t, tt.expected, res.Fired)
			assert.Equal(t, "markers", res.Name)
			assert.InDelta(t, 0.55, res.Weight, 1e-9)
			assert.Equal(t, ReasonSpamMarker, res.Reason)
		})
	}
}

func TestLengthRule(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "short", text: "hello", expected: false},
		{name: "exactly at limit", text: strings.Repeat("a", 320), expected: false},
		{name: "one over limit", text: strings.Repeat("a", 321), expected: true},
		{name: "multibyte counted in bytes", text: strings.Repeat("я", 161), expected: true}, // 322 bytes, 161 runes
		{name: "multibyte under limit", text: strings.Repeat("я", 160), expected: false},    // 320 bytes
	}

	rule := LengthRule(0.2, 320)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule(tt.text)
			assert.Equal(t, tt.expected, res.Fired)
			assert.Equal(t, ReasonTooLong, res.Reason)
		})
	}
}

func TestExclamationRule(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "none", text: "hello there", expected: false},
		{name: "four", text: "wow!!!!", expected: false},
		{name: "five together", text: "wow!!!!!", expected: true},
		{name: "five spread", text: "a! b! c! d! e!", expected: true},
		{name: "fullwidth is not counted", text: "！！！！！", expected: false},
	}

	rule := ExclamationRule(0.15, 5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule(tt.text)
			assert.Equal(t, tt.expected, res.Fired)
			assert.Equal(t, ReasonExclamation, res.Reason)
		})
	}
}

func TestBrevityRule(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "empty", text: "", expected: true},
		{name: "whitespace only", text: " \t\n ", expected: true},
		{name: "one word", text: "hi", expected: true},
		{name: "two words with extra spaces", text: "  hello   there  ", expected: true},
		{name: "three words", text: "hello there friend", expected: false},
		{name: "tabs and newlines separate words", text: "one\ttwo\nthree", expected: false},
	}

	rule := BrevityRule(0.1, 2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule(tt.text)
			assert.Equal(t, tt.expected, res.Fired)
			assert.Equal(t, ReasonTooShort, res.Reason)
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	assert.Len(t, rules, 4)
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r("").Name)
	}
	assert.Equal(t, []string{"markers", "length", "exclamation", "brevity"}, names)
}

func TestMarkersRule_OwnsMarkers(t *testing.T) {
	markers := []string{"casino", "crypto"}
	rule := MarkersRule(0.55, markers...)
	markers[1] = "zzzz"
	assert.True(t, rule("buy some crypto today").Fired)
	assert.False(t, rule("zzzz").Fired)
}

func TestDefaultMarkers_Immutable(t *testing.T) {
	before := Classify("buy some crypto today")
	require.Equal(t, []string{ReasonSpamMarker}, before.Reasons)

	markers := DefaultMarkers()
	markers[5] = "zzzz"
	assert.Equal(t, "crypto", DefaultMarkers()[5])
	assert.Equal(t, before, Classify("buy some crypto today"))
	assert.Equal(t, before, NewClassifier().Classify("buy some crypto today"))
}
