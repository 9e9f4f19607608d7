package promote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valyala/fasttemplate"

	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/workitem"
)

// DefaultTitle is the pull request title template used when
// Config.TitleTemplate is empty.
const DefaultTitle = "bumping nugets to {{environment}}"

// Repository is everything Run needs from a clone.
type Repository interface {
	Gateway
	Publisher
}

var _ Repository = (*git.Repo)(nil)

// Bumper edits the dependency files of the checked-out bump
// branch and verifies the result builds. Any error aborts the
// run before anything is committed.
type Bumper interface {
	Bump(ctx context.Context, dir string) error
}

// BumperFunc adapts a plain function to Bumper.
type BumperFunc func(ctx context.Context, dir string) error

// Bump calls f.
func (f BumperFunc) Bump(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// Config holds all settings for one promotion run.
type Config struct {
	// Repo is the clone to promote in.
	Repo Repository

	// Dir is the working tree handed to the Bumper.
	Dir string

	// Chain is the ordered list of environment branches.
	Chain Chain

	// Ordinal selects the target environment in Chain.
	Ordinal int

	// Bumper patches and builds the project. Nil skips
	// the edit step.
	Bumper Bumper

	// Provider opens the pull request. Nil skips PR
	// creation.
	Provider git.GitProvider

	// TitleTemplate is the PR title with {{environment}}
	// and {{branch}} placeholders. Empty uses
	// DefaultTitle.
	TitleTemplate string

	// DryRun stops after the bump: nothing is committed,
	// pushed or opened.
	DryRun bool
}

// Summary reports what a run did.
type Summary struct {
	Branch    string
	Target    string
	WorkItems workitem.Set
	Pushed    bool
	PRCreated bool
}

// Run executes the full promotion: prepare the bump branch,
// bump, finalize and open a pull request. A failing pull
// request is logged and does not fail the run, since the
// branch is already on the remote at that point.
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	const errCtx = "running promotion"

	// Step 1: Bring the bump branch up to date.
	res, err := NewOrchestrator(cfg.Repo, cfg.Chain).Prepare(cfg.Ordinal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sum := &Summary{
		Branch:    res.Branch,
		Target:    res.Environment.Name,
		WorkItems: res.WorkItems,
	}

	// Step 2: Edit and build.
	if cfg.Bumper != nil {
		if err := cfg.Bumper.Bump(ctx, cfg.Dir); err != nil {
			return sum, fmt.Errorf(
				"%s: bump: %w", errCtx, err,
			)
		}
	}

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping commit, push and PR creation",
			"branch", sum.Branch,
		)

		return sum, nil
	}

	// Step 3: Stage, commit, push.
	if err := Finalize(cfg.Repo, sum.Branch); err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}

	sum.Pushed = true

	// Step 4: Open the pull request.
	if cfg.Provider == nil {
		slog.Info("no pull request provider configured")

		return sum, nil
	}

	pr := git.PullRequest{
		Source:    sum.Branch,
		Target:    sum.Target,
		Title:     renderTitle(cfg.TitleTemplate, sum),
		Body:      workitem.Describe(sum.WorkItems),
		WorkItems: sum.WorkItems.IDs(),
	}

	if err := cfg.Provider.CreatePR(ctx, pr); err != nil {
		slog.Warn(
			"branch is ready on the remote, "+
				"but creating the pull request failed",
			"branch", sum.Branch,
			"error", err,
		)

		return sum, nil
	}

	sum.PRCreated = true

	return sum, nil
}

// renderTitle substitutes {{environment}} and {{branch}} in
// tpl. Unknown placeholders are kept as-is.
func renderTitle(tpl string, sum *Summary) string {
	if tpl == "" {
		tpl = DefaultTitle
	}

	return fasttemplate.ExecuteStringStd(
		tpl, "{{", "}}",
		map[string]any{
			"environment": sum.Target,
			"branch":      sum.Branch,
		},
	)
}
