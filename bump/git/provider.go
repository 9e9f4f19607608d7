package git

import "context"

// Pattern: Strategy -- swap hosting platform without
// changing the promotion workflow.

// PullRequest describes a review request from the bump
// branch into its environment branch.
type PullRequest struct {
	// Source is the branch carrying the changes.
	Source string
	// Target is the environment branch to merge into.
	Target string
	// Title is the one-line summary.
	Title string
	// Body is the description. Providers fall back to
	// Title when it is empty.
	Body string
	// WorkItems are ticket ids referenced by the commits
	// in flight. Providers that cannot link tickets
	// natively rely on Body listing them.
	WorkItems []string
}

// GitProvider opens pull requests on a git hosting platform.
type GitProvider interface {
	CreatePR(ctx context.Context, pr PullRequest) error
}

// GitProviderFunc adapts a plain function to the GitProvider
// interface.
type GitProviderFunc func(ctx context.Context, pr PullRequest) error

// CreatePR delegates to the wrapped function. If the body is
// empty, the title is substituted.
func (f GitProviderFunc) CreatePR(
	ctx context.Context,
	pr PullRequest,
) error {
	if pr.Body == "" {
		pr.Body = pr.Title
	}

	return f(ctx, pr)
}
