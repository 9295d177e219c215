// Package message builds prompts for commit-message generation and
// normalizes model replies into clean commit messages.
package message

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/remsg/remsg/internal/git"
	"github.com/remsg/remsg/internal/llm"
	"github.com/remsg/remsg/internal/stringsutil"
)

const (
	rewriteSystemPrompt = "You are an assistant that rewrites git commit messages. Reply with the commit message only, without explanations or code fences."
	stagedSystemPrompt  = "You are an assistant that writes git commit messages. Reply with the commit message only, without explanations or code fences."
)

// languageNames maps language codes accepted by --lang to the names spelled
// out in prompts.
var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"pt": "Portuguese",
	"ru": "Russian",
}

var typePrefixPattern = regexp.MustCompile(`(?i)^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)(\([^)]+\))?:\s*(.*)$`)

// Options configures prompt construction.
type Options struct {
	Template    string
	Language    string
	Instruction string
	PromptsDir  string
}

// Generator turns commits and staged changes into improved messages.
type Generator struct {
	provider llm.Provider
	opts     Options

	// Logger receives generation and template failures when set.
	Logger *log.Logger
}

func NewGenerator(provider llm.Provider, opts Options) *Generator {
	if opts.Template == "" {
		opts.Template = "default"
	}
	return &Generator{provider: provider, opts: opts}
}

// Rewrite generates an improved message for commit. It never fails outward:
// when generation errors or returns nothing usable, the original message
// comes back with generated=false.
func (g *Generator) Rewrite(ctx context.Context, commit git.Commit) (string, bool) {
	prompt := g.BuildRewritePrompt(commit)
	raw, err := g.provider.GenerateMessage(ctx, prompt, rewriteSystemPrompt)
	if err != nil {
		g.logf("generation failed for %s: %v", stringsutil.ShortHash(commit.Hash, 7, "?"), err)
		return commit.Message, false
	}

	msg := NormalizeResponse(raw)
	if msg == "" {
		g.logf("empty generation for %s, keeping original", stringsutil.ShortHash(commit.Hash, 7, "?"))
		return commit.Message, false
	}
	return msg, true
}

// Staged generates a fresh message for staged changes.
func (g *Generator) Staged(ctx context.Context, files []string, diff string) (string, error) {
	prompt := g.BuildStagedPrompt(files, diff)
	raw, err := g.provider.GenerateMessage(ctx, prompt, stagedSystemPrompt)
	if err != nil {
		return "", err
	}

	msg := NormalizeResponse(raw)
	if msg == "" {
		return "", llm.ErrEmptyResponse
	}
	return msg, nil
}

// BuildRewritePrompt renders the rewrite template for one commit.
func (g *Generator) BuildRewritePrompt(commit git.Commit) string {
	data := TemplateData{
		Original:    strings.TrimSpace(commit.Message),
		Files:       strings.Join(commit.Files, "\n"),
		Diff:        TruncateDiff(commit.Diff, commit.Stats, diffPromptLimit),
		Language:    languageName(g.opts.Language),
		Instruction: g.opts.Instruction,
	}
	return g.renderPrompt(g.opts.Template, "default", data)
}

// BuildStagedPrompt renders the generation template for staged changes.
func (g *Generator) BuildStagedPrompt(files []string, diff string) string {
	data := TemplateData{
		Files:       strings.Join(files, "\n"),
		Diff:        TruncateDiff(diff, "", diffPromptLimit),
		Language:    languageName(g.opts.Language),
		Instruction: g.opts.Instruction,
	}
	name := g.opts.Template
	if name == "" || name == "default" {
		name = "staged"
	}
	return g.renderPrompt(name, "staged", data)
}

func (g *Generator) renderPrompt(name, fallback string, data TemplateData) string {
	content, err := GetPromptTemplate(name, g.opts.PromptsDir)
	if err != nil {
		g.logf("template %q not found, using %s: %v", name, fallback, err)
		content = builtinTemplates[fallback]
	}

	prompt, err := RenderTemplate(content, data)
	if err != nil {
		g.logf("template %q failed to render, using %s: %v", name, fallback, err)
		prompt, _ = RenderTemplate(builtinTemplates[fallback], data)
	}

	if data.Language != "" && !strings.Contains(content, ".Language") {
		prompt += "\n\nWrite the commit message in " + data.Language + "."
	}
	if data.Instruction != "" && !strings.Contains(content, ".Instruction") {
		prompt += "\n\nAdditional Instructions:\n" + data.Instruction
	}
	return prompt
}

func (g *Generator) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger.Printf(format, args...)
	}
}

func languageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "en" {
		return ""
	}
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// NormalizeResponse cleans a model reply into a usable commit message: code
// fences are stripped and a conventional type prefix on the subject line is
// lower-cased.
func NormalizeResponse(raw string) string {
	msg := stripCodeFence(strings.TrimSpace(raw))
	if msg == "" {
		return ""
	}

	lines := strings.Split(msg, "\n")
	lines[0] = normalizeTypePrefix(lines[0])
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripCodeFence(msg string) string {
	if !strings.HasPrefix(msg, "```") {
		return msg
	}

	lines := strings.Split(msg, "\n")
	lines = lines[1:]
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			lines = lines[:i]
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeTypePrefix(line string) string {
	line = strings.TrimSpace(line)
	matches := typePrefixPattern.FindStringSubmatch(line)
	if len(matches) < 4 {
		return line
	}
	return strings.ToLower(matches[1]) + matches[2] + ": " + strings.TrimSpace(matches[3])
}
