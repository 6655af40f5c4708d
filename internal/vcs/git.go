package vcs

import "context"

// gitRepo resolves revisions via the git binary.
type gitRepo struct {
	root string
}

func (g *gitRepo) Name() Type {
	return TypeGit
}

// Revision returns the full HEAD commit hash.
func (g *gitRepo) Revision(ctx context.Context) (string, error) {
	return runCommand(ctx, g.root, "git", "rev-parse", "HEAD")
}
