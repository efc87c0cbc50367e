package cli

// This file contains Git integration utilities for retrieving
// repository information.

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/perfgo/coverpipe/model"
)

func gitOutput(args ...string) (string, error) {
	output, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// repoRoot returns the top-level directory of the enclosing git repository,
// or "" outside one.
func repoRoot() string {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return root
}

func (a *App) getGitInfo() (*model.Git, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not in a git repository: %w", err)
	}

	commit, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	return &model.Git{
		Commit: commit,
		Branch: branch,
		Repo:   filepath.Base(root),
		Root:   root,
	}, nil
}
