package message

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptTemplate is the on-disk layout of a custom template file.
type PromptTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// TemplateData carries the values a prompt template can reference.
type TemplateData struct {
	Original    string
	Files       string
	Diff        string
	Language    string
	Instruction string
}

var builtinTemplates = map[string]string{
	"default": `You are an expert software engineer. Rewrite the following Git commit message so it follows the Conventional Commits specification:

Original Message:
{{.Original}}

Changed Files:
{{.Files}}

Changed Content:
{{.Diff}}

Reply with the improved commit message only, in the format "type(scope): description".
The type must be the most appropriate from: feat, fix, docs, style, refactor, test, chore, perf, ci, build, revert.
Keep the subject line at most 72 characters, start the description lower-case, and do not end it with a period.
Preserve the intent of the original message and never describe changes the diff does not show.`,

	"detailed": `You are an expert software engineer reviewing Git history. Rewrite the following commit message as a Conventional Commits message with a body:

Original Message:
{{.Original}}

Changed Files:
{{.Files}}

Changed Content:
{{.Diff}}

Reply with the commit message only. Format:
1. A subject line "type(scope): description" where the type is one of feat, fix, docs, style, refactor, test, chore, perf, ci, build, revert, the scope names the touched component, and the description is imperative, lower-case, at most 72 characters, without a trailing period.
2. A blank line.
3. A short body explaining what changed and why, wrapped at 72 columns.

Preserve the intent of the original message and never describe changes the diff does not show.`,

	"staged": `You are an expert software engineer. Generate a commit message that follows the Conventional Commits specification for the following staged Git changes:

Changed Files:
{{.Files}}

Changed Content:
{{.Diff}}

Reply with the commit message only, in the format "type(scope): description".
The type must be the most appropriate from: feat, fix, docs, style, refactor, test, chore, perf, ci, build, revert.
Keep the subject line at most 72 characters, start the description lower-case, and do not end it with a period.`,
}

// GetPromptTemplate resolves a template by name: builtin first, then a
// literal file path, then a file under promptsDir (".yaml" appended when the
// name has no extension). Custom files may be a YAML PromptTemplate or raw
// template text.
func GetPromptTemplate(name, promptsDir string) (string, error) {
	if tpl, ok := builtinTemplates[name]; ok {
		return tpl, nil
	}

	if _, err := os.Stat(name); err == nil {
		return readTemplateFile(name)
	}

	if promptsDir != "" {
		customPath := filepath.Join(promptsDir, name)
		if filepath.Ext(customPath) == "" {
			customPath += ".yaml"
		}
		if _, err := os.Stat(customPath); err == nil {
			return readTemplateFile(customPath)
		}
	}

	return "", fmt.Errorf("could not find prompt template: %s", name)
}

func readTemplateFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	var tpl PromptTemplate
	if err := yaml.Unmarshal(content, &tpl); err != nil || tpl.Template == "" {
		return string(content), nil
	}
	return tpl.Template, nil
}

// RenderTemplate executes template text against data.
func RenderTemplate(templateContent string, data TemplateData) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// BuiltinTemplateNames lists the builtin template names.
func BuiltinTemplateNames() []string {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	return names
}

// ListCustomTemplates returns the usable template names under dirPath.
func ListCustomTemplates(dirPath string) ([]string, error) {
	fi, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", dirPath)
		}
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			continue
		}
		var tpl PromptTemplate
		if err := yaml.Unmarshal(content, &tpl); err != nil || tpl.Template == "" {
			continue
		}

		name := entry.Name()[:len(entry.Name())-len(ext)]
		if tpl.Name != "" {
			templates = append(templates, fmt.Sprintf("%s (%s)", name, tpl.Name))
		} else {
			templates = append(templates, name)
		}
	}

	return templates, nil
}
