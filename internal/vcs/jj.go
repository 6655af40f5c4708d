package vcs

import "context"

// jjRepo resolves revisions via the jj binary.
type jjRepo struct {
	root string
}

func (j *jjRepo) Name() Type {
	return TypeJJ
}

// Revision returns the commit id of the working-copy change.
func (j *jjRepo) Revision(ctx context.Context) (string, error) {
	return runCommand(ctx, j.root, "jj", "log", "-r", "@", "--no-graph", "-T", "commit_id")
}
