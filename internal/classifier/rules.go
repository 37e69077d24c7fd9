package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/spec-kit/campusdesk/internal/domain"
)

type keywordRule struct {
	department domain.Department
	pattern    *regexp.Regexp
}

// Order matters: the first matching rule wins.
var keywordRules = []keywordRule{
	{domain.DepartmentHostel, regexp.MustCompile(`hostel|room|ac|mess|warden|maintenance`)},
	{domain.DepartmentFinance, regexp.MustCompile(`fee|finance|payment|waiver|scholarship|refund|installment`)},
	{domain.DepartmentExamination, regexp.MustCompile(`exam|mark|result|hall.ticket|re-?eval`)},
	{domain.DepartmentLibrary, regexp.MustCompile(`library|book|return|digital.resource`)},
}

// RuleClassifier assigns departments from keyword patterns. It never fails.
type RuleClassifier struct{}

// NewRuleClassifier constructs the keyword classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify matches text against the keyword rules and always reports low confidence.
func (RuleClassifier) Classify(_ context.Context, text string) (Classification, error) {
	return ClassifyByRules(text), nil
}

// ClassifyByRules is the deterministic keyword classification of text.
func ClassifyByRules(text string) Classification {
	lower := strings.ToLower(text)
	department := domain.DefaultDepartment
	for _, rule := range keywordRules {
		if rule.pattern.MatchString(lower) {
			department = rule.department
			break
		}
	}
	return Classification{
		Department: department,
		Summary:    truncateSummary(text),
		Confidence: domain.ConfidenceLow,
	}
}
