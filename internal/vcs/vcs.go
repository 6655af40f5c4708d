// Package vcs resolves the revision of the benchmarked repository for the
// environment record.
//
// Two backends are supported, git and jj (Jujutsu), behind a small
// strategy interface with filesystem-based detection. Detection walks up
// from the starting directory looking for VCS metadata; a colocated
// repository (.jj alongside .git) resolves through jj.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Type identifies a VCS backend.
type Type string

const (
	// TypeGit indicates a git repository.
	TypeGit Type = "git"

	// TypeJJ indicates a jj repository, colocated or not.
	TypeJJ Type = "jj"
)

// ErrNoRepository is returned by Detect when no VCS metadata directory is
// found between the starting directory and the filesystem root.
var ErrNoRepository = errors.New("no git or jj repository found")

// VCS resolves revisions for one repository.
type VCS interface {
	// Name returns the backend type.
	Name() Type

	// Revision returns the repository's current head revision.
	Revision(ctx context.Context) (string, error)
}

// Detect walks up from dir looking for VCS metadata and returns the
// matching backend. jj wins over git for colocated repositories, since a
// colocated checkout is driven through jj.
func Detect(dir string) (VCS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		if isDir(filepath.Join(abs, ".jj")) {
			return &jjRepo{root: abs}, nil
		}
		if exists(filepath.Join(abs, ".git")) {
			return &gitRepo{root: abs}, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return nil, ErrNoRepository
		}
		abs = parent
	}
}

// HeadRevision is a convenience wrapper: detect the repository containing
// dir and return its head revision. Returns "" (not an error) when dir is
// not inside a repository, so callers can emit NULL.
func HeadRevision(ctx context.Context, dir string) (string, error) {
	v, err := Detect(dir)
	if errors.Is(err, ErrNoRepository) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v.Revision(ctx)
}

// runCommand executes a VCS binary in dir and returns its trimmed stdout.
func runCommand(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// exists reports whether path exists as any kind of entry. A .git entry
// can be a plain file in worktrees.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
