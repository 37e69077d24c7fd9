// Package classifier routes free-text student requests to a department.
//
// A RemoteClassifier asks a language model; a RuleClassifier matches
// keywords. FallbackClassifier composes the two so callers always receive
// a classification.
package classifier

import (
	"context"
	"strings"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// MaxSummaryLength bounds the summary stored on a request, in characters.
const MaxSummaryLength = 60

// Source values identify which path produced a classification.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceRules    = "rules"
)

// Classification is the derived routing information for a request text.
type Classification struct {
	Department domain.Department
	Summary    string
	Confidence domain.Confidence
}

// TextClassifier maps request text to a classification.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Completer sends a prompt to a text-completion endpoint.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// truncateSummary returns the first MaxSummaryLength characters of s.
func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxSummaryLength {
		return s
	}
	return string(runes[:MaxSummaryLength])
}

// normalize enforces the classification invariants on untrusted output.
func normalize(c Classification, text string) Classification {
	if !c.Department.Valid() {
		c.Department = domain.DefaultDepartment
	}
	if !c.Confidence.Valid() {
		c.Confidence = domain.ConfidenceLow
	}
	if strings.TrimSpace(c.Summary) == "" {
		c.Summary = text
	}
	c.Summary = truncateSummary(strings.TrimSpace(c.Summary))
	return c
}
