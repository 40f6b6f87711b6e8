package spamcheck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_String(t *testing.T) {
	tests := []struct {
		name     string
		input    *Response
		expected string
	}{
		{
			name:     "test spam",
			input:    &Response{Score: 0.7, IsSpam: true, Reasons: []string{"contains spam marker", "too many exclamation marks"}},
			expected: "spam: 0.70, [{contains spam marker}, {too many exclamation marks}]",
		},
		{
			name:     "test ham",
			input:    &Response{Score: 0.1, IsSpam: false, Reasons: []string{"very short message"}},
			expected: "ham: 0.10, [{very short message}]",
		},
		{
			name:     "no reasons",
			input:    &Response{Reasons: []string{}},
			expected: "ham: 0.00, []",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.String())
		})
	}
}

func TestRequest_String(t *testing.T) {
	tests := []struct {
		name     string
		request  Request
		expected string
	}{
		{name: "normal message", request: Request{Text: "Hello, world!"}, expected: "len:13"},
		{name: "empty", request: Request{}, expected: "len:0"},
		{name: "multibyte", request: Request{Text: "привет"}, expected: "len:12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.request.String())
		})
	}
}

func TestResponse_JSON(t *testing.T) {
	data, err := json.Marshal(Response{Score: 0.1, Reasons: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.1,"is_spam":false,"reasons":[]}`, string(data))

	req := Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"text":"some text"}`), &req))
	assert.Equal(t, "some text", req.Text)
}
