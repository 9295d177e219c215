package quality

import (
	"fmt"
	"testing"
)

func TestEvaluateScores(t *testing.T) {
	evaluator := NewEvaluator(DefaultThreshold)

	tests := []struct {
		name       string
		message    string
		score      int
		wellFormed bool
	}{
		{
			name:       "Perfect conventional commit",
			message:    "feat(auth): add JWT refresh handling",
			score:      10,
			wellFormed: true,
		},
		{
			name:       "Conventional commit without scope",
			message:    "fix: resolve parsing error in config loader",
			score:      10,
			wellFormed: true,
		},
		{
			name:       "Bare generic word",
			message:    "fix",
			score:      2,
			wellFormed: false,
		},
		{
			name:       "Generic word with trailing period",
			message:    "update.",
			score:      1,
			wellFormed: false,
		},
		{
			name:       "Generic two-word form",
			message:    "Initial commit",
			score:      3,
			wellFormed: false,
		},
		{
			name:       "Plain sentence of decent length",
			message:    "added the new login page for users",
			score:      6,
			wellFormed: false,
		},
		{
			name:       "Conventional but capitalized subject",
			message:    "feat: Add new login page",
			score:      9,
			wellFormed: true,
		},
		{
			name:       "Conventional but trailing period",
			message:    "chore: bump dependency versions.",
			score:      9,
			wellFormed: true,
		},
		{
			name:       "Conventional but subject too long",
			message:    "refactor(core): rework the entire configuration subsystem to support hierarchical profiles everywhere",
			score:      8,
			wellFormed: true,
		},
		{
			name:       "Empty message",
			message:    "",
			score:      3,
			wellFormed: false,
		},
		{
			name:       "Multi-line message scores on first line",
			message:    "feat(db): add connection pooling\n\nAlso includes retry logic for the dial path.",
			score:      10,
			wellFormed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluator.Evaluate(tt.message)
			if got.Score != tt.score {
				t.Errorf("Evaluate(%q).Score = %d, want %d (reasons: %v)",
					tt.message, got.Score, tt.score, got.Reasons)
			}
			if got.WellFormed != tt.wellFormed {
				t.Errorf("Evaluate(%q).WellFormed = %v, want %v", tt.message, got.WellFormed, tt.wellFormed)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	evaluator := NewEvaluator(DefaultThreshold)
	message := "did some stuff"

	first := evaluator.Evaluate(message)
	for i := 0; i < 5; i++ {
		again := evaluator.Evaluate(message)
		if again.Score != first.Score || len(again.Reasons) != len(first.Reasons) {
			t.Fatalf("Evaluate is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestEvaluateScoreRange(t *testing.T) {
	evaluator := NewEvaluator(DefaultThreshold)

	messages := []string{
		"", "x", "fix", "WIP", "update commit.", "feat(auth): add JWT refresh handling",
		"FIX: Broken Thing.", "chore:", "a very plain description of work that was done here",
	}

	for _, message := range messages {
		got := evaluator.Evaluate(message)
		if got.Score < 0 || got.Score > MaxScore {
			t.Errorf("Evaluate(%q).Score = %d, out of range [0,%d]", message, got.Score, MaxScore)
		}
	}
}

func TestWellFormedMatchesThreshold(t *testing.T) {
	messages := []string{
		"fix",
		"update the thing",
		"feat: add login",
		"feat(auth): add JWT refresh handling",
		"docs: describe the release process in detail.",
	}

	for threshold := 1; threshold <= 10; threshold++ {
		evaluator := NewEvaluator(threshold)
		for _, message := range messages {
			got := evaluator.Evaluate(message)
			want := got.Score >= threshold
			if got.WellFormed != want {
				t.Errorf("threshold %d: Evaluate(%q) WellFormed = %v, score = %d",
					threshold, message, got.WellFormed, got.Score)
			}
		}
	}
}

func TestEvaluateReasons(t *testing.T) {
	evaluator := NewEvaluator(DefaultThreshold)

	tests := []struct {
		message string
		reason  string
	}{
		{"short", "subject line too short"},
		{"wip", "generic message"},
		{"Added the user login page validation", "subject does not start lower-case"},
		{"improve startup time by caching the config.", "subject ends with a period"},
		{"improve startup time by caching the config", "not in conventional commit format"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			got := evaluator.Evaluate(tt.message)
			found := false
			for _, r := range got.Reasons {
				if r == tt.reason {
					found = true
				}
			}
			if !found {
				t.Errorf("Evaluate(%q).Reasons = %v, want to contain %q", tt.message, got.Reasons, tt.reason)
			}
		})
	}
}

func TestNewEvaluatorDefaultsThreshold(t *testing.T) {
	for _, threshold := range []int{0, -3} {
		t.Run(fmt.Sprintf("threshold_%d", threshold), func(t *testing.T) {
			evaluator := NewEvaluator(threshold)
			if evaluator.Threshold() != DefaultThreshold {
				t.Errorf("Threshold() = %d, want %d", evaluator.Threshold(), DefaultThreshold)
			}
		})
	}
}

func TestCommitType(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"feat(auth): add JWT refresh handling", "feat"},
		{"fix: resolve parsing error", "fix"},
		{"update stuff", ""},
		{"revert: feat(auth): add JWT refresh handling", "revert"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CommitType(tt.message); got != tt.expected {
			t.Errorf("CommitType(%q) = %q, want %q", tt.message, got, tt.expected)
		}
	}
}

func TestGetQualityLevel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{10, "Excellent"},
		{9, "Excellent"},
		{8, "Good"},
		{7, "Good"},
		{6, "Needs Improvement"},
		{0, "Needs Improvement"},
	}

	for _, tt := range tests {
		if got := GetQualityLevel(tt.score); got != tt.expected {
			t.Errorf("GetQualityLevel(%d) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}
