package message

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	diffPromptLimit  = 8000
	truncationMarker = "\n... (diff truncated)"
)

var (
	lowPriorityPatterns = []string{
		"go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
		"Cargo.lock", "Gemfile.lock", "composer.lock", "*.lock",
		"*.pb.go", "*_generated.go", "*.min.js", "*.min.css", "*.map",
	}
	lowPriorityDirs = []string{"vendor", "node_modules", "third_party", "dist"}
)

// diffSection is one per-file block of a unified diff.
type diffSection struct {
	path    string
	text    string
	lowPrio bool
}

type fileStat struct {
	added   int
	deleted int
	binary  bool
}

// TruncateDiff reduces a diff to roughly limit bytes while keeping whole
// per-file sections where possible. Lock files, vendored trees and generated
// code are summarized to one line each; numstat supplies the counts shown in
// summary lines. A non-positive limit selects the default.
func TruncateDiff(diff, numstat string, limit int) string {
	if limit <= 0 {
		limit = diffPromptLimit
	}
	if len(diff) <= limit {
		return diff
	}

	sections := splitDiffSections(diff)
	if len(sections) == 0 {
		return truncateToValidUTF8(diff, limit) + truncationMarker
	}

	stats := parseNumstat(numstat)

	ordered := make([]diffSection, 0, len(sections))
	var deferred []diffSection
	for _, section := range sections {
		if section.lowPrio {
			deferred = append(deferred, section)
			continue
		}
		ordered = append(ordered, section)
	}
	ordered = append(ordered, deferred...)

	var b strings.Builder
	for _, section := range ordered {
		if !section.lowPrio && b.Len()+len(section.text) <= limit {
			b.WriteString(section.text)
			continue
		}
		line := summarizeSection(section, stats)
		if b.Len()+len(line) > limit {
			break
		}
		b.WriteString(line)
	}

	if b.Len() == 0 {
		return truncateToValidUTF8(diff, limit) + truncationMarker
	}
	return truncateToValidUTF8(b.String(), limit)
}

func splitDiffSections(diff string) []diffSection {
	const header = "diff --git "

	var marks []int
	if strings.HasPrefix(diff, header) {
		marks = append(marks, 0)
	}
	for i := 0; ; {
		j := strings.Index(diff[i:], "\n"+header)
		if j < 0 {
			break
		}
		marks = append(marks, i+j+1)
		i += j + 1
	}
	if len(marks) == 0 {
		return nil
	}

	sections := make([]diffSection, 0, len(marks))
	for k, m := range marks {
		end := len(diff)
		if k+1 < len(marks) {
			end = marks[k+1]
		}
		text := diff[m:end]
		firstLine := text
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			firstLine = text[:nl]
		}
		path := sectionPath(firstLine)
		sections = append(sections, diffSection{
			path:    path,
			text:    text,
			lowPrio: isLowPriority(path),
		})
	}
	return sections
}

func sectionPath(headerLine string) string {
	fields := strings.Fields(headerLine)
	if len(fields) >= 3 && (fields[1] == "--cc" || fields[1] == "--combined") {
		return strings.Trim(fields[2], "\"")
	}
	if len(fields) < 4 {
		return ""
	}
	path := strings.Trim(fields[3], "\"")
	return strings.TrimPrefix(path, "b/")
}

func isLowPriority(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		for _, dir := range lowPriorityDirs {
			if seg == dir {
				return true
			}
		}
	}
	base := filepath.Base(path)
	for _, pattern := range lowPriorityPatterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func summarizeSection(section diffSection, stats map[string]fileStat) string {
	stat, ok := stats[section.path]
	switch {
	case ok && stat.binary:
		return section.path + " (binary)\n"
	case ok:
		return section.path + " (+" + strconv.Itoa(stat.added) + "/-" + strconv.Itoa(stat.deleted) + ")\n"
	default:
		return section.path + " (changed)\n"
	}
}

func parseNumstat(raw string) map[string]fileStat {
	stats := make(map[string]fileStat)
	for _, line := range strings.Split(raw, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		var stat fileStat
		if parts[0] == "-" && parts[1] == "-" {
			stat.binary = true
		} else {
			stat.added, _ = strconv.Atoi(parts[0])
			stat.deleted, _ = strconv.Atoi(parts[1])
		}
		for _, key := range renameKeys(strings.TrimSpace(parts[2])) {
			stats[key] = stat
		}
	}
	return stats
}

// renameKeys expands numstat rename spellings ("old => new" and
// "dir/{old => new}/file") so section lookup hits either side.
func renameKeys(path string) []string {
	if !strings.Contains(path, "=>") {
		return []string{path}
	}

	if start := strings.Index(path, "{"); start >= 0 {
		if end := strings.Index(path, "}"); end > start {
			inner := path[start+1 : end]
			if oldPart, newPart, ok := strings.Cut(inner, "=>"); ok {
				prefix, suffix := path[:start], path[end+1:]
				oldPath := collapseSlashes(prefix + strings.TrimSpace(oldPart) + suffix)
				newPath := collapseSlashes(prefix + strings.TrimSpace(newPart) + suffix)
				return []string{oldPath, newPath, path}
			}
		}
	}

	if oldPart, newPart, ok := strings.Cut(path, " => "); ok {
		return []string{strings.TrimSpace(oldPart), strings.TrimSpace(newPart), path}
	}
	return []string{path}
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

func truncateToValidUTF8(input string, maxBytes int) string {
	if len(input) <= maxBytes {
		return input
	}

	end := maxBytes
	for end > 0 && !utf8.ValidString(input[:end]) {
		end--
	}
	if end == 0 {
		return ""
	}
	return input[:end]
}
