package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remsg/remsg/internal/config"
	"github.com/remsg/remsg/internal/git"
	"github.com/remsg/remsg/internal/quality"
	"github.com/remsg/remsg/internal/stringsutil"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score commit messages without changing anything",
	Long: `Score the commit messages of the current branch against the quality rubric ` +
		`and report the results. Nothing is rewritten and no LLM is contacted, so this ` +
		`works without an API key.`,
	Example: `  # Score the whole branch
  remsg analyze

  # Score the last 50 commits with a stricter bar
  remsg analyze -n 50 --threshold 9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return fmt.Errorf("configuration error: %w", configErr)
		}
		return runAnalyze()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	gitClient := git.NewClient(git.Options{Verbose: verbose})
	if err := gitClient.CheckRepository(); err != nil {
		return err
	}

	commits, err := gitClient.ListCommits(limitCount)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Fprintln(errWriter(), "No commits found, nothing to analyze")
		return nil
	}

	evaluator := quality.NewEvaluator(resolveThreshold(cfg))
	report := buildReport(evaluator, commits)
	printReport(outWriter(), evaluator, report)
	return nil
}

// scoredCommit pairs a commit with its rubric outcome.
type scoredCommit struct {
	commit     git.Commit
	assessment quality.Assessment
}

type analysisReport struct {
	scored       []scoredCommit
	scoreSum     int
	wellFormed   int
	distribution [quality.MaxScore + 1]int
	types        map[string]int
}

func buildReport(evaluator *quality.Evaluator, commits []git.Commit) analysisReport {
	report := analysisReport{types: make(map[string]int)}
	for _, commit := range commits {
		assessment := evaluator.Evaluate(commit.Message)
		report.scored = append(report.scored, scoredCommit{commit: commit, assessment: assessment})
		report.scoreSum += assessment.Score
		if assessment.WellFormed {
			report.wellFormed++
		}
		report.distribution[assessment.Score]++

		commitType := quality.CommitType(commit.Message)
		if commitType == "" {
			commitType = "(none)"
		}
		report.types[commitType]++
	}
	return report
}

func printReport(w io.Writer, evaluator *quality.Evaluator, report analysisReport) {
	total := len(report.scored)
	average := float64(report.scoreSum) / float64(total)

	fmt.Fprintf(w, "Analyzed %d commit(s)\n", total)
	fmt.Fprintf(w, "Average score: %.1f/%d, %d/%d well formed (threshold %d)\n\n",
		average, quality.MaxScore, report.wellFormed, total, evaluator.Threshold())

	fmt.Fprintln(w, "Score distribution:")
	for score := quality.MaxScore; score >= 0; score-- {
		count := report.distribution[score]
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %2d  %s %d\n", score, strings.Repeat("#", count), count)
	}

	if typeLines := formatTypeCounts(report.types); typeLines != "" {
		fmt.Fprintf(w, "\nCommit types: %s\n", typeLines)
	}

	printWorstOffenders(w, report.scored)

	level := quality.GetQualityLevel(int(math.Round(average)))
	fmt.Fprintf(w, "\nOverall quality: %s\n", level)
}

func formatTypeCounts(types map[string]int) string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if types[names[i]] != types[names[j]] {
			return types[names[i]] > types[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, types[name]))
	}
	return strings.Join(parts, ", ")
}

const maxWorstOffenders = 5

func printWorstOffenders(w io.Writer, scored []scoredCommit) {
	worst := make([]scoredCommit, 0, len(scored))
	for _, s := range scored {
		if !s.assessment.WellFormed {
			worst = append(worst, s)
		}
	}
	if len(worst) == 0 {
		return
	}

	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].assessment.Score < worst[j].assessment.Score
	})
	if len(worst) > maxWorstOffenders {
		worst = worst[:maxWorstOffenders]
	}

	fmt.Fprintf(w, "\nWorst offenders:\n")
	for _, s := range worst {
		fmt.Fprintf(w, "  %s  %2d/%d  %s\n",
			stringsutil.ShortHash(s.commit.Hash, 7, "?"), s.assessment.Score,
			quality.MaxScore, stringsutil.FirstLine(s.commit.Message))
		if len(s.assessment.Reasons) > 0 {
			fmt.Fprintf(w, "           reasons: %s\n", strings.Join(s.assessment.Reasons, ", "))
		}
	}
}
