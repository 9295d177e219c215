package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/remsg/remsg/internal/git"
	"github.com/remsg/remsg/internal/quality"
	"github.com/remsg/remsg/internal/stringsutil"
	"github.com/remsg/remsg/internal/ui"
)

// generationPace is the delay between consecutive provider calls.
const generationPace = 500 * time.Millisecond

// Decision is the outcome for one commit: keep the original message or
// replace it. Final is never empty.
type Decision struct {
	Hash       string
	Original   string
	Final      string
	Generated  bool
	Skipped    bool
	Assessment quality.Assessment
}

// Changed reports whether applying the decision alters the commit message.
func (d Decision) Changed() bool {
	return d.Final != d.Original
}

// Plan holds one decision per enumerated commit, index-aligned with the
// enumeration order. It is built fully before any destructive step.
type Plan struct {
	Decisions []Decision
}

// Rewrites counts the decisions that change a message.
func (p Plan) Rewrites() int {
	count := 0
	for _, d := range p.Decisions {
		if d.Changed() {
			count++
		}
	}
	return count
}

// Replacements returns the rewrite range and its message mapping: the hash of
// the first changed commit, and the final message for every commit from that
// point on, keyed by hash. Unchanged suffix commits are included so the
// rewrite can re-emit their messages verbatim. Returns ("", nil) when nothing
// changes.
func (p Plan) Replacements() (string, map[string]string) {
	first := -1
	for i, d := range p.Decisions {
		if d.Changed() {
			first = i
			break
		}
	}
	if first < 0 {
		return "", nil
	}

	messages := make(map[string]string, len(p.Decisions)-first)
	for _, d := range p.Decisions[first:] {
		messages[d.Hash] = d.Final
	}
	return p.Decisions[first].Hash, messages
}

// Stats tallies a run for the summary line.
type Stats struct {
	Total    int
	Skipped  int
	Improved int
	Kept     int
}

// Planner builds a rewrite plan from enumerated commits.
type Planner struct {
	generator      MessageGenerator
	evaluator      *quality.Evaluator
	skipWellFormed bool
	pace           time.Duration
}

func NewPlanner(generator MessageGenerator, evaluator *quality.Evaluator, skipWellFormed bool) *Planner {
	return &Planner{
		generator:      generator,
		evaluator:      evaluator,
		skipWellFormed: skipWellFormed,
		pace:           generationPace,
	}
}

// Build assesses each commit in order and decides its final message.
// Well-formed messages are skipped when skipWellFormed is set; the rest go
// through the generator, which falls back to the original on failure.
// Consecutive generator calls are separated by a fixed delay.
func (p *Planner) Build(ctx context.Context, commits []git.Commit) (Plan, Stats, error) {
	decisions := make([]Decision, 0, len(commits))
	stats := Stats{Total: len(commits)}

	var sp *ui.Spinner
	defer func() {
		if sp != nil {
			sp.Stop()
		}
	}()

	generated := false
	for i, commit := range commits {
		if err := ctx.Err(); err != nil {
			return Plan{}, Stats{}, err
		}

		assessment := p.evaluator.Evaluate(commit.Message)
		if p.skipWellFormed && assessment.WellFormed {
			decisions = append(decisions, Decision{
				Hash:       commit.Hash,
				Original:   commit.Message,
				Final:      commit.Message,
				Skipped:    true,
				Assessment: assessment,
			})
			stats.Skipped++
			continue
		}

		if generated {
			select {
			case <-ctx.Done():
				return Plan{}, Stats{}, ctx.Err()
			case <-time.After(p.pace):
			}
		}

		label := fmt.Sprintf("Rewriting %s (%d/%d)...",
			stringsutil.ShortHash(commit.Hash, 7, "?"), i+1, len(commits))
		if sp == nil {
			sp = ui.NewSpinner(label)
			sp.Start()
		} else {
			sp.UpdateMessage(label)
		}

		final, ok := p.generator.Rewrite(ctx, commit)
		generated = true
		if final == "" {
			final = commit.Message
		}

		decisions = append(decisions, Decision{
			Hash:       commit.Hash,
			Original:   commit.Message,
			Final:      final,
			Generated:  ok,
			Assessment: assessment,
		})
		if final != commit.Message {
			stats.Improved++
		} else {
			stats.Kept++
		}
	}

	return Plan{Decisions: decisions}, stats, nil
}
