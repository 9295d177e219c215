package gitutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/remsg/remsg/internal/gitcmd"
)

func TestValidateBranchName(t *testing.T) {
	valid := []string{"main", "backup/main-20250314-092653", "feature/add-login", "HEAD"}
	for _, name := range valid {
		assert.NoError(t, ValidateBranchName(name), "name %q", name)
	}

	invalid := []string{"", "-leading", "a..b", "has space", "tilde~1", "care^t", "col:on", "ask?", "sta*r", "brack[et"}
	for _, name := range invalid {
		assert.Error(t, ValidateBranchName(name), "name %q", name)
	}
}

func TestWrapGitErrorPrefersStderr(t *testing.T) {
	cause := errors.New("exit status 128")

	err := WrapGitError("failed to create backup branch", gitcmd.Result{Stderr: []byte("fatal: a branch named 'x' already exists\n")}, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a branch named 'x' already exists")

	err = WrapGitError("failed to create backup branch", gitcmd.Result{}, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to create backup branch: exit status 128", err.Error())
}
