package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// ErrEmptyCompletion is returned when the model replies with no text.
var ErrEmptyCompletion = errors.New("empty completion")

const promptTemplate = `You are a campus administrative assistant. Classify this student request into exactly ONE department and generate a short summary.

Departments:
- Academic: transcripts, certificates, bonafide, enrollment, leave, grade issues, course-related
- Hostel: room allotment, room change, hostel facilities, maintenance, AC, mess
- Finance: fee payment, fee waiver, scholarships, refunds, installments, late fee
- Examination: marksheets, hall tickets, re-evaluation, exam schedule, results
- Library: books, library access, membership, book return, digital resources

Student Request: "%s"

Respond with ONLY valid JSON, no markdown, no explanation:
{"department":"<one of the 5 departments>","summary":"<max 60 char summary>","confidence":"high|medium|low"}`

type classificationResponse struct {
	Department string `json:"department"`
	Summary    string `json:"summary"`
	Confidence string `json:"confidence"`
}

// RemoteClassifier asks a language model to classify request text.
type RemoteClassifier struct {
	completer Completer
}

// NewRemoteClassifier wraps a completer.
func NewRemoteClassifier(completer Completer) *RemoteClassifier {
	return &RemoteClassifier{completer: completer}
}

// Classify sends the classification prompt and parses the JSON reply.
// Departments outside the known set are coerced to the default department.
func (c *RemoteClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if c.completer == nil {
		return Classification{}, errors.New("classifier: no completer configured")
	}
	raw, err := c.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		return Classification{}, fmt.Errorf("classifier: completion: %w", err)
	}
	parsed, err := parseClassification(raw)
	if err != nil {
		return Classification{}, err
	}
	return normalize(parsed, text), nil
}

// BuildPrompt renders the instruction prompt for text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

func parseClassification(raw string) (Classification, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Classification{}, ErrEmptyCompletion
	}

	var resp classificationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Classification{}, fmt.Errorf("classifier: parse response: %w", err)
	}
	return Classification{
		Department: domain.Department(strings.TrimSpace(resp.Department)),
		Summary:    resp.Summary,
		Confidence: domain.Confidence(strings.ToLower(strings.TrimSpace(resp.Confidence))),
	}, nil
}
