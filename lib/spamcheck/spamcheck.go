package spamcheck

import (
	"fmt"
	"strings"
)

// Request is a request to check a message for spam.
type Request struct {
	Text string `json:"text"` // message to check
}

func (r *Request) String() string {
	return fmt.Sprintf("len:%d", len(r.Text)) // text itself is never exposed
}

// Response is a result of spam check.
type Response struct {
	Score   float64  `json:"score"`   // spam score in [0.0, 1.0]
	IsSpam  bool     `json:"is_spam"` // true if score reached the spam threshold
	Reasons []string `json:"reasons"` // labels of fired rules, in evaluation order
}

func (r *Response) String() string {
	spamOrHam := "ham"
	if r.IsSpam {
		spamOrHam = "spam"
	}
	return fmt.Sprintf("%s: %.2f, %s", spamOrHam, r.Score, ReasonsToString(r.Reasons))
}

// ReasonsToString converts a slice of reasons to a string
func ReasonsToString(reasons []string) string {
	elems := []string{}
	for _, r := range reasons {
		elems = append(elems, "{"+r+"}")
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}
