// Package quality scores commit messages against a deterministic rubric.
package quality

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum score for a message to count as well formed.
const DefaultThreshold = 7

// MaxScore is the highest score the rubric can produce.
const MaxScore = 10

const (
	minSubjectLength = 10
	maxSubjectLength = 72
)

var (
	conventionalPattern = regexp.MustCompile(
		`^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)(\([^)]+\))?: .+`)
	typePrefixPattern = regexp.MustCompile(
		`^(?:feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)(?:\([^)]+\))?:\s*`)
	genericPattern = regexp.MustCompile(
		`(?i)^(update|fix|change|modify|commit|initial|test|wip)(\s+commit)?\.?$`)
)

// Assessment is the rubric outcome for a single message.
type Assessment struct {
	Score      int
	WellFormed bool
	Reasons    []string
}

// Evaluator scores messages and classifies them against a threshold.
type Evaluator struct {
	threshold int
}

// NewEvaluator creates an evaluator. Non-positive thresholds fall back to the default.
func NewEvaluator(threshold int) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold}
}

// Threshold returns the configured well-formedness threshold.
func (e *Evaluator) Threshold() int {
	return e.threshold
}

// Evaluate scores a commit message. The same input always yields the same
// Assessment; reasons are reported in rubric order.
func (e *Evaluator) Evaluate(message string) Assessment {
	message = strings.TrimSpace(message)
	subject := firstLine(message)

	score := 0
	var reasons []string

	if conventionalPattern.MatchString(subject) {
		score += 4
	} else {
		reasons = append(reasons, "not in conventional commit format")
	}

	switch length := len(subject); {
	case length < minSubjectLength:
		reasons = append(reasons, "subject line too short")
	case length > maxSubjectLength:
		reasons = append(reasons, "subject line too long")
	default:
		score += 2
	}

	if genericPattern.MatchString(message) {
		reasons = append(reasons, "generic message")
	} else {
		score += 2
	}

	if startsLowerCase(typePrefixPattern.ReplaceAllString(subject, "")) {
		score++
	} else {
		reasons = append(reasons, "subject does not start lower-case")
	}

	if strings.HasSuffix(subject, ".") {
		reasons = append(reasons, "subject ends with a period")
	} else {
		score++
	}

	return Assessment{
		Score:      score,
		WellFormed: score >= e.threshold,
		Reasons:    reasons,
	}
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return message
}

func startsLowerCase(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}

// CommitType returns the conventional commit type of a message, or "" when the
// subject does not carry one.
func CommitType(message string) string {
	matches := conventionalPattern.FindStringSubmatch(firstLine(strings.TrimSpace(message)))
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// GetQualityLevel returns a human-readable quality level for a score.
func GetQualityLevel(score int) string {
	switch {
	case score >= 9:
		return "Excellent"
	case score >= DefaultThreshold:
		return "Good"
	default:
		return "Needs Improvement"
	}
}
