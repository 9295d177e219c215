package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codeSection = "diff --git a/main.go b/main.go\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -1,3 +1,4 @@\n" +
	"+func main() {}\n"

func TestTruncateDiffShortPassthrough(t *testing.T) {
	diff := "diff --git a/a.go b/a.go\n+tiny\n"
	assert.Equal(t, diff, TruncateDiff(diff, "", 1000))
}

func TestTruncateDiffUnparsableContent(t *testing.T) {
	diff := strings.Repeat("x", 500)

	result := TruncateDiff(diff, "", 100)

	assert.Contains(t, result, "... (diff truncated)")
	assert.Less(t, len(result), len(diff))
}

func TestTruncateDiffSummarizesLowPriorityFiles(t *testing.T) {
	lockSection := "diff --git a/go.sum b/go.sum\n" +
		"--- a/go.sum\n+++ b/go.sum\n" +
		strings.Repeat("+github.com/example/mod v1.0.0 h1:abcdef\n", 30)
	diff := codeSection + lockSection
	numstat := "1\t0\tmain.go\n30\t0\tgo.sum\n"

	result := TruncateDiff(diff, numstat, 400)

	assert.Contains(t, result, "+func main() {}")
	assert.Contains(t, result, "go.sum (+30/-0)")
	assert.NotContains(t, result, "github.com/example/mod")
}

func TestTruncateDiffSummarizesOversizedSections(t *testing.T) {
	bigSection := "diff --git a/big.go b/big.go\n" +
		"--- a/big.go\n+++ b/big.go\n" +
		strings.Repeat("+generated line of code\n", 40)
	numstat := "40\t2\tbig.go\n"

	result := TruncateDiff(bigSection+codeSection, numstat, 200)

	assert.Contains(t, result, "big.go (+40/-2)")
	assert.Contains(t, result, "+func main() {}")
}

func TestTruncateDiffBinarySummary(t *testing.T) {
	binarySection := "diff --git a/logo.png b/logo.png\n" +
		"Binary files a/logo.png and b/logo.png differ\n" +
		strings.Repeat("x", 300)
	numstat := "-\t-\tlogo.png\n"

	result := TruncateDiff(codeSection+binarySection, numstat, 250)

	assert.Contains(t, result, "logo.png (binary)")
}

func TestTruncateDiffUnknownStatsFallback(t *testing.T) {
	section := "diff --git a/mystery.go b/mystery.go\n" +
		strings.Repeat("+line\n", 100)

	result := TruncateDiff(section, "", 100)

	assert.Contains(t, result, "mystery.go (changed)")
}

func TestSplitDiffSections(t *testing.T) {
	lockSection := "diff --git a/go.sum b/go.sum\n+dep\n"
	sections := splitDiffSections(codeSection + lockSection)

	require.Len(t, sections, 2)
	assert.Equal(t, "main.go", sections[0].path)
	assert.False(t, sections[0].lowPrio)
	assert.Contains(t, sections[0].text, "+func main() {}")
	assert.Equal(t, "go.sum", sections[1].path)
	assert.True(t, sections[1].lowPrio)

	assert.Nil(t, splitDiffSections("no diff markers here"))
}

func TestSectionPath(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: "diff --git a/cmd/root.go b/cmd/root.go", want: "cmd/root.go"},
		{line: "diff --cc internal/git/git.go", want: "internal/git/git.go"},
		{line: "diff --git", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sectionPath(tt.line), "line %q", tt.line)
	}
}

func TestIsLowPriority(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "go.sum", want: true},
		{path: "Cargo.lock", want: true},
		{path: "vendor/lib/code.go", want: true},
		{path: "web/node_modules/left-pad/index.js", want: true},
		{path: "assets/app.min.js", want: true},
		{path: "api/service.pb.go", want: true},
		{path: "main.go", want: false},
		{path: "internal/config/config.go", want: false},
		{path: "", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isLowPriority(tt.path), "path %q", tt.path)
	}
}

func TestParseNumstat(t *testing.T) {
	raw := "10\t2\tmain.go\n" +
		"-\t-\tlogo.png\n" +
		"3\t1\tinternal/{old => new}/file.go\n" +
		"malformed line\n"

	stats := parseNumstat(raw)

	assert.Equal(t, fileStat{added: 10, deleted: 2}, stats["main.go"])
	assert.Equal(t, fileStat{binary: true}, stats["logo.png"])
	assert.Equal(t, fileStat{added: 3, deleted: 1}, stats["internal/old/file.go"])
	assert.Equal(t, fileStat{added: 3, deleted: 1}, stats["internal/new/file.go"])
	assert.NotContains(t, stats, "malformed line")
}

func TestRenameKeys(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "plain.go", want: []string{"plain.go"}},
		{
			path: "old.go => new.go",
			want: []string{"old.go", "new.go", "old.go => new.go"},
		},
		{
			path: "internal/{old => new}/file.go",
			want: []string{"internal/old/file.go", "internal/new/file.go", "internal/{old => new}/file.go"},
		},
		{
			path: "dir/{ => sub}/f.go",
			want: []string{"dir/f.go", "dir/sub/f.go", "dir/{ => sub}/f.go"},
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, renameKeys(tt.path), "path %q", tt.path)
	}
}

func TestTruncateToValidUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateToValidUTF8("short", 100))
	assert.Equal(t, "日", truncateToValidUTF8("日本語", 4))
	assert.Equal(t, "ab", truncateToValidUTF8("abcdef", 2))
	assert.Equal(t, "", truncateToValidUTF8("日本語", 1))
}
